package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trinslooks/studio-api/internal/booking"
	"github.com/trinslooks/studio-api/internal/model"
)

// HTTPClient syncs confirmed appointments to an external calendar service
// over its REST API. CreateEvent returns the remote event id, which is stored
// on the appointment and used to remove the event on cancellation.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type eventRequest struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	TimeSlot string `json:"time_slot"`
	Duration string `json:"duration"`
	Notes    string `json:"notes"`
}

type eventResponse struct {
	ID string `json:"id"`
}

func (c *HTTPClient) CreateEvent(ctx context.Context, appt model.Appointment) (string, error) {
	if c.baseURL == "" {
		return "", errors.New("calendar base url not configured")
	}
	raw, err := json.Marshal(eventRequest{
		Title:    "Appointment: " + appt.CustomerName,
		Date:     appt.Date,
		TimeSlot: appt.TimeSlot,
		Duration: appt.DurationText,
		Notes:    fmt.Sprintf("%s / %s", appt.CustomerEmail, appt.CustomerPhone),
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("calendar create returned %d", resp.StatusCode)
	}
	var out eventResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("calendar create returned no event id")
	}
	return out.ID, nil
}

// DeleteEvent removes a previously created event. A 404 means the event is
// already gone, which is fine.
func (c *HTTPClient) DeleteEvent(ctx context.Context, ref string) error {
	if c.baseURL == "" {
		return errors.New("calendar base url not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/events/"+url.PathEscape(ref), nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("calendar delete returned %d", resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// Disabled is the client used when no calendar service is configured.
// CreateEvent reports no reference and no error, so confirmations proceed
// without calendar sync.
type Disabled struct{}

func NewDisabled() *Disabled {
	return &Disabled{}
}

func (Disabled) CreateEvent(context.Context, model.Appointment) (string, error) {
	return "", nil
}

func (Disabled) DeleteEvent(context.Context, string) error {
	return nil
}

var (
	_ booking.CalendarClient = (*HTTPClient)(nil)
	_ booking.CalendarClient = Disabled{}
)
