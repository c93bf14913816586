package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/trinslooks/studio-api/internal/model"
)

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("no-reply@studio.local", "dana@example.com", "Booking received", "Hi Dana")
	for _, want := range []string{
		"From: no-reply@studio.local\r\n",
		"To: dana@example.com\r\n",
		"Subject: Booking received\r\n",
		"\r\n\r\nHi Dana\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestWebhookAlertSender(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWebhookAlertSender(srv.URL, "secret-token")
	appt := model.Appointment{Date: "2026-03-14", TimeSlot: "02:00 PM", CustomerName: "Dana Rolle", CustomerPhone: "+1-242-555-0134"}
	svc := model.Service{Name: "Glam Session", Duration: "2 Hours"}
	if err := s.SendOperatorAlert(context.Background(), appt, svc); err != nil {
		t.Fatalf("SendOperatorAlert: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("auth header %q", gotAuth)
	}
	text := gotBody["text"]
	for _, want := range []string{"Glam Session", "2026-03-14", "02:00 PM", "Dana Rolle"} {
		if !strings.Contains(text, want) {
			t.Errorf("alert text missing %q: %q", want, text)
		}
	}
}

func TestWebhookAlertSenderNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewWebhookAlertSender(srv.URL, "")
	err := s.SendOperatorAlert(context.Background(), model.Appointment{}, model.Service{})
	if err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestWebhookAlertSenderUnconfigured(t *testing.T) {
	s := NewWebhookAlertSender("", "")
	if err := s.SendOperatorAlert(context.Background(), model.Appointment{}, model.Service{}); err == nil {
		t.Fatal("expected error when url missing")
	}
}
