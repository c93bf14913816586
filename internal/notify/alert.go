package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/trinslooks/studio-api/internal/model"
)

// WebhookAlertSender posts a short new-booking message to a chat webhook so
// the operator hears about bookings without watching the inbox.
type WebhookAlertSender struct {
	url   string
	token string
	http  *http.Client
}

func NewWebhookAlertSender(url, token string) *WebhookAlertSender {
	return &WebhookAlertSender{
		url:   strings.TrimSpace(url),
		token: strings.TrimSpace(token),
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (s *WebhookAlertSender) SendOperatorAlert(ctx context.Context, appt model.Appointment, svc model.Service) error {
	if s.url == "" {
		return errors.New("alert webhook url not configured")
	}
	payload := map[string]string{
		"text": fmt.Sprintf("New booking: %s on %s at %s (%s) for %s, %s",
			svc.Name, appt.Date, appt.TimeSlot, svc.Duration,
			appt.CustomerName, appt.CustomerPhone),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("alert webhook returned non-2xx")
	}
	return nil
}

// NoopAlertSender stands in when no webhook is configured.
type NoopAlertSender struct{}

func NewNoopAlertSender() *NoopAlertSender {
	return &NoopAlertSender{}
}

func (s *NoopAlertSender) SendOperatorAlert(context.Context, model.Appointment, model.Service) error {
	return nil
}
