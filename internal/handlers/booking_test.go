package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/trinslooks/studio-api/internal/booking"
	"github.com/trinslooks/studio-api/internal/model"
)

type fakeLifecycle struct {
	bookRes   booking.BookingResult
	bookErr   error
	transRes  booking.TransitionResult
	transErr  error
	deleteErr error
	lastOp    string
	lastID    string
}

func (f *fakeLifecycle) Book(_ context.Context, _ booking.BookingRequest) (booking.BookingResult, error) {
	f.lastOp = "book"
	return f.bookRes, f.bookErr
}

func (f *fakeLifecycle) Confirm(_ context.Context, id string) (booking.TransitionResult, error) {
	f.lastOp, f.lastID = "confirm", id
	return f.transRes, f.transErr
}

func (f *fakeLifecycle) Cancel(_ context.Context, id string) (booking.TransitionResult, error) {
	f.lastOp, f.lastID = "cancel", id
	return f.transRes, f.transErr
}

func (f *fakeLifecycle) Complete(_ context.Context, id string) (booking.TransitionResult, error) {
	f.lastOp, f.lastID = "complete", id
	return f.transRes, f.transErr
}

func (f *fakeLifecycle) Delete(_ context.Context, id string) error {
	f.lastOp, f.lastID = "delete", id
	return f.deleteErr
}

type fakeSlots struct {
	slots        []string
	err          error
	lastDuration string
}

func (f *fakeSlots) AvailableSlots(_ context.Context, _, durationText string) ([]string, error) {
	f.lastDuration = durationText
	if f.err != nil {
		return nil, f.err
	}
	if durationText == "" {
		return []string{}, nil
	}
	return f.slots, nil
}

type fakeAppts struct {
	appts []model.Appointment
}

func (f *fakeAppts) List(_ context.Context, date, status string) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range f.appts {
		if (date == "" || a.Date == date) && (status == "" || a.Status == status) {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeHandlerCatalog struct {
	services map[string]model.Service
}

func (f *fakeHandlerCatalog) GetService(_ context.Context, id string) (model.Service, error) {
	svc, ok := f.services[id]
	if !ok {
		return model.Service{}, booking.ErrNotFound
	}
	return svc, nil
}

func (f *fakeHandlerCatalog) ListServices(_ context.Context) ([]model.Service, error) {
	var out []model.Service
	for _, s := range f.services {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeHandlerCatalog) UpsertService(_ context.Context, s model.Service) error {
	f.services[s.ID] = s
	return nil
}

func (f *fakeHandlerCatalog) DeleteService(_ context.Context, id string) error {
	if _, ok := f.services[id]; !ok {
		return booking.ErrNotFound
	}
	delete(f.services, id)
	return nil
}

type bookingFixture struct {
	lifecycle *fakeLifecycle
	slots     *fakeSlots
	handler   *BookingHandler
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		lifecycle: &fakeLifecycle{},
		slots:     &fakeSlots{slots: []string{"09:00 AM", "09:30 AM"}},
	}
	catalog := &fakeHandlerCatalog{services: map[string]model.Service{
		"svc-1": {ID: "svc-1", Name: "Glam Session", Duration: "2 Hours"},
	}}
	f.handler = NewBookingHandler(f.lifecycle, f.slots, &fakeAppts{}, catalog,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func TestSlotsResolvesServiceDuration(t *testing.T) {
	f := newBookingFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?date=2026-03-14&service_id=svc-1", nil)
	rec := httptest.NewRecorder()
	f.handler.Slots(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if f.slots.lastDuration != "2 Hours" {
		t.Fatalf("duration %q, want catalog's", f.slots.lastDuration)
	}
	var slots []string
	if err := json.Unmarshal(rec.Body.Bytes(), &slots); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("slots %v", slots)
	}
}

func TestSlotsExplicitDurationWins(t *testing.T) {
	f := newBookingFixture()

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/public/slots?date=2026-03-14&service_id=svc-1&duration=30+min", nil)
	rec := httptest.NewRecorder()
	f.handler.Slots(rec, req)

	if f.slots.lastDuration != "30 min" {
		t.Fatalf("duration %q, want the explicit parameter", f.slots.lastDuration)
	}
}

func TestSlotsUnknownServiceReturnsEmpty(t *testing.T) {
	f := newBookingFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?date=2026-03-14&service_id=nope", nil)
	rec := httptest.NewRecorder()
	f.handler.Slots(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200 with empty list", rec.Code)
	}
	var slots []string
	if err := json.Unmarshal(rec.Body.Bytes(), &slots); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("slots %v, want empty", slots)
	}
}

func TestBookCreated(t *testing.T) {
	f := newBookingFixture()
	f.lifecycle.bookRes = booking.BookingResult{AppointmentID: "appt-1", Status: model.StatusPending}

	body := `{"service_id":"svc-1","date":"2026-03-14","time_slot":"02:00 PM",` +
		`"customer_name":"Dana","customer_email":"d@example.com","customer_phone":"555"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.Book(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp bookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AppointmentID != "appt-1" || resp.Status != model.StatusPending {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestBookValidationError(t *testing.T) {
	f := newBookingFixture()
	f.lifecycle.bookErr = &booking.ValidationError{Fields: []string{"customer_phone"}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	f.handler.Book(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "customer_phone") {
		t.Fatalf("missing field name in body: %s", rec.Body.String())
	}
}

func TestBookSlotConflict(t *testing.T) {
	f := newBookingFixture()
	f.lifecycle.bookErr = booking.ErrSlotConflict

	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	f.handler.Book(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409", rec.Code)
	}
}

func TestConfirmTransition(t *testing.T) {
	f := newBookingFixture()
	f.lifecycle.transRes = booking.TransitionResult{Status: model.StatusConfirmed}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/appointments/confirm",
		strings.NewReader(`{"appointment_id":"appt-1"}`))
	rec := httptest.NewRecorder()
	f.handler.Confirm(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if f.lifecycle.lastOp != "confirm" || f.lifecycle.lastID != "appt-1" {
		t.Fatalf("op %s id %s", f.lifecycle.lastOp, f.lifecycle.lastID)
	}
}

func TestTransitionConflict(t *testing.T) {
	f := newBookingFixture()
	f.lifecycle.transErr = &booking.InvalidTransitionError{From: model.StatusCancelled, To: model.StatusConfirmed}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/appointments/confirm",
		strings.NewReader(`{"appointment_id":"appt-1"}`))
	rec := httptest.NewRecorder()
	f.handler.Confirm(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409", rec.Code)
	}
}

func TestTransitionNotFound(t *testing.T) {
	f := newBookingFixture()
	f.lifecycle.transErr = booking.ErrNotFound

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/appointments/cancel",
		strings.NewReader(`{"appointment_id":"missing"}`))
	rec := httptest.NewRecorder()
	f.handler.Cancel(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestTransitionRequiresID(t *testing.T) {
	f := newBookingFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/appointments/confirm",
		strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	f.handler.Confirm(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestDeleteAppointment(t *testing.T) {
	f := newBookingFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/appointments/delete",
		strings.NewReader(`{"appointment_id":"appt-1"}`))
	rec := httptest.NewRecorder()
	f.handler.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if f.lifecycle.lastOp != "delete" {
		t.Fatalf("op %s", f.lifecycle.lastOp)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	appts := &fakeAppts{appts: []model.Appointment{
		{ID: "a1", Date: "2026-03-14", Status: model.StatusPending, CreatedAt: time.Now()},
		{ID: "a2", Date: "2026-03-14", Status: model.StatusConfirmed, CreatedAt: time.Now()},
	}}
	h := NewBookingHandler(&fakeLifecycle{}, &fakeSlots{}, appts,
		&fakeHandlerCatalog{services: map[string]model.Service{}}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/appointments?status=confirmed", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	var items []appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].AppointmentID != "a2" {
		t.Fatalf("items %+v", items)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	f := newBookingFixture()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/public/book", nil)
	rec := httptest.NewRecorder()
	f.handler.Book(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d", rec.Code)
	}
}
