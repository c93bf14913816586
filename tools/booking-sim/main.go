// booking-sim exercises the public booking flow against a running API:
// it fetches the open slots for a date and books the first one.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

func main() {
	var (
		baseURL   = flag.String("base-url", getenv("BASE_URL", "http://localhost:8080"), "api base url")
		serviceID = flag.String("service-id", getenv("SERVICE_ID", ""), "catalog service id")
		date      = flag.String("date", getenv("BOOK_DATE", time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")), "booking date (YYYY-MM-DD)")
		name      = flag.String("name", getenv("CUSTOMER_NAME", "Sim Customer"), "customer name")
		email     = flag.String("email", getenv("CUSTOMER_EMAIL", "sim@example.com"), "customer email")
		phone     = flag.String("phone", getenv("CUSTOMER_PHONE", "+1-555-0100"), "customer phone")
	)
	flag.Parse()

	if strings.TrimSpace(*serviceID) == "" {
		fatal("SERVICE_ID is required")
	}
	base := strings.TrimRight(*baseURL, "/")

	slotsURL := fmt.Sprintf("%s/api/v1/public/slots?date=%s&service_id=%s",
		base, url.QueryEscape(*date), url.QueryEscape(*serviceID))
	resp, err := http.Get(slotsURL)
	if err != nil {
		fatal(err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fatal(fmt.Sprintf("slots request returned %d", resp.StatusCode))
	}
	var slots []string
	if err := json.NewDecoder(resp.Body).Decode(&slots); err != nil {
		fatal(err.Error())
	}
	if len(slots) == 0 {
		fatal(fmt.Sprintf("no open slots on %s", *date))
	}
	fmt.Printf("open_slots=%d first=%s\n", len(slots), slots[0])

	payload, err := json.Marshal(map[string]string{
		"service_id":     *serviceID,
		"date":           *date,
		"time_slot":      slots[0],
		"customer_name":  *name,
		"customer_email": *email,
		"customer_phone": *phone,
	})
	if err != nil {
		fatal(err.Error())
	}

	bookResp, err := http.Post(base+"/api/v1/public/book", "application/json", bytes.NewReader(payload))
	if err != nil {
		fatal(err.Error())
	}
	defer bookResp.Body.Close()

	var booked struct {
		AppointmentID string   `json:"appointment_id"`
		Status        string   `json:"status"`
		Warnings      []string `json:"warnings"`
	}
	if err := json.NewDecoder(bookResp.Body).Decode(&booked); err != nil {
		fatal(err.Error())
	}
	fmt.Printf("status=%d appointment_id=%s state=%s warnings=%v\n",
		bookResp.StatusCode, booked.AppointmentID, booked.Status, booked.Warnings)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
