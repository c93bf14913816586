package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/trinslooks/studio-api/internal/model"
)

// SMTPSender sends booking and contact emails via unauthenticated SMTP
// (Mailpit-compatible). operatorTo receives the internal copies.
type SMTPSender struct {
	addr       string
	from       string
	operatorTo string
	studioName string
}

func NewSMTPSender(host, port, from, operatorTo, studioName string) *SMTPSender {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	from = strings.TrimSpace(from)
	if from == "" {
		from = "no-reply@studio.local"
	}
	if studioName == "" {
		studioName = "the studio"
	}
	return &SMTPSender{
		addr:       fmt.Sprintf("%s:%s", host, port),
		from:       from,
		operatorTo: strings.TrimSpace(operatorTo),
		studioName: studioName,
	}
}

// SendBookingEmails delivers the customer confirmation and, when an operator
// address is configured, the internal new-booking notice.
func (s *SMTPSender) SendBookingEmails(_ context.Context, appt model.Appointment, svc model.Service) error {
	subject := fmt.Sprintf("Booking received: %s on %s", svc.Name, appt.Date)
	body := fmt.Sprintf(
		"Hi %s,\n\nWe received your booking request with %s.\n\n"+
			"Service: %s\nDate: %s\nTime: %s\nDuration: %s\n\n"+
			"We will confirm your appointment shortly.\n",
		appt.CustomerName, s.studioName,
		svc.Name, appt.Date, appt.TimeSlot, svc.Duration,
	)
	if err := s.send(appt.CustomerEmail, subject, body); err != nil {
		return err
	}

	if s.operatorTo == "" {
		return nil
	}
	opSubject := fmt.Sprintf("New booking: %s, %s %s", svc.Name, appt.Date, appt.TimeSlot)
	opBody := fmt.Sprintf(
		"New booking request.\n\nService: %s\nDate: %s\nTime: %s\nDuration: %s\n\n"+
			"Customer: %s\nEmail: %s\nPhone: %s\n",
		svc.Name, appt.Date, appt.TimeSlot, svc.Duration,
		appt.CustomerName, appt.CustomerEmail, appt.CustomerPhone,
	)
	return s.send(s.operatorTo, opSubject, opBody)
}

// SendContactEmail forwards a contact-form submission to the operator.
func (s *SMTPSender) SendContactEmail(_ context.Context, name, email, message string) error {
	if s.operatorTo == "" {
		return nil
	}
	subject := "Contact form: " + name
	body := fmt.Sprintf("From: %s <%s>\n\n%s\n", name, email, message)
	return s.send(s.operatorTo, subject, body)
}

func (s *SMTPSender) send(to, subject, body string) error {
	msg := buildMessage(s.from, to, subject, body)
	return smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(msg))
}

func buildMessage(from, to, subject, body string) string {
	// Minimal RFC 5322 message; enough for Mailpit and most SMTP relays.
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from,
		to,
		subject,
		body,
	)
}
