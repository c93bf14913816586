package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/trinslooks/studio-api/internal/booking"
	"github.com/trinslooks/studio-api/internal/model"
)

// BookingService is the slice of the appointment lifecycle the HTTP layer
// needs. Implemented by booking.Lifecycle.
type BookingService interface {
	Book(ctx context.Context, req booking.BookingRequest) (booking.BookingResult, error)
	Confirm(ctx context.Context, id string) (booking.TransitionResult, error)
	Cancel(ctx context.Context, id string) (booking.TransitionResult, error)
	Complete(ctx context.Context, id string) (booking.TransitionResult, error)
	Delete(ctx context.Context, id string) error
}

// SlotLister computes the open slots for a date and a service duration.
type SlotLister interface {
	AvailableSlots(ctx context.Context, date, durationText string) ([]string, error)
}

// AppointmentLister backs the admin appointment list.
type AppointmentLister interface {
	List(ctx context.Context, date, status string) ([]model.Appointment, error)
}

// ServiceCatalog resolves and manages the bookable services.
type ServiceCatalog interface {
	GetService(ctx context.Context, id string) (model.Service, error)
	ListServices(ctx context.Context) ([]model.Service, error)
	UpsertService(ctx context.Context, svc model.Service) error
	DeleteService(ctx context.Context, id string) error
}

type BookingHandler struct {
	lifecycle BookingService
	slots     SlotLister
	appts     AppointmentLister
	catalog   ServiceCatalog
	logger    *slog.Logger
}

func NewBookingHandler(lifecycle BookingService, slots SlotLister, appts AppointmentLister, catalog ServiceCatalog, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		lifecycle: lifecycle,
		slots:     slots,
		appts:     appts,
		catalog:   catalog,
		logger:    logger,
	}
}

type bookRequest struct {
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"`
	TimeSlot      string `json:"time_slot"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

type bookResponse struct {
	AppointmentID string   `json:"appointment_id"`
	Status        string   `json:"status"`
	Warnings      []string `json:"warnings,omitempty"`
}

type transitionRequest struct {
	AppointmentID string `json:"appointment_id"`
}

type transitionResponse struct {
	AppointmentID string   `json:"appointment_id"`
	Status        string   `json:"status"`
	Warnings      []string `json:"warnings,omitempty"`
}

type appointmentItem struct {
	AppointmentID string `json:"appointment_id"`
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"`
	TimeSlot      string `json:"time_slot"`
	Duration      string `json:"duration"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

// Slots serves GET /api/v1/public/slots, responding with the open start
// times as a JSON array. An explicit duration parameter wins; otherwise the
// duration text comes from the service_id's catalog entry. Unknown dates and
// services produce an empty list, not an error, so the booking form can poll
// freely while the visitor types.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	durationText := strings.TrimSpace(r.URL.Query().Get("duration"))
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	if durationText == "" && serviceID != "" {
		svc, err := h.catalog.GetService(r.Context(), serviceID)
		if err != nil && !errors.Is(err, booking.ErrNotFound) {
			http.Error(w, "failed to load service", http.StatusInternalServerError)
			return
		}
		if err == nil {
			durationText = svc.Duration
		}
	}

	slots, err := h.slots.AvailableSlots(r.Context(), date, durationText)
	if err != nil {
		http.Error(w, "failed to compute slots", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

// Book serves POST /api/v1/public/book.
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	res, err := h.lifecycle.Book(r.Context(), booking.BookingRequest{
		ServiceID:     req.ServiceID,
		Date:          req.Date,
		TimeSlot:      req.TimeSlot,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookResponse{
		AppointmentID: res.AppointmentID,
		Status:        res.Status,
		Warnings:      res.Warnings,
	})
}

// List serves GET /api/v1/admin/appointments with optional date and status
// filters.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	appts, err := h.appts.List(r.Context(), date, status)
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, appointmentItem{
			AppointmentID: a.ID,
			ServiceID:     a.ServiceID,
			Date:          a.Date,
			TimeSlot:      a.TimeSlot,
			Duration:      a.DurationText,
			CustomerName:  a.CustomerName,
			CustomerEmail: a.CustomerEmail,
			CustomerPhone: a.CustomerPhone,
			Status:        a.Status,
			CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.Confirm)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.Cancel)
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.Complete)
}

// Delete serves POST /api/v1/admin/appointments/delete. Unlike the status
// transitions this removes the record entirely, whatever its status.
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, ok := decodeAppointmentID(w, r)
	if !ok {
		return
	}
	if err := h.lifecycle.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"appointment_id": id, "status": "deleted"})
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (booking.TransitionResult, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, ok := decodeAppointmentID(w, r)
	if !ok {
		return
	}
	res, err := op(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{
		AppointmentID: id,
		Status:        res.Status,
		Warnings:      res.Warnings,
	})
}

func decodeAppointmentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return "", false
	}
	id := strings.TrimSpace(req.AppointmentID)
	if id == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func (h *BookingHandler) writeError(w http.ResponseWriter, err error) {
	var verr *booking.ValidationError
	var terr *booking.InvalidTransitionError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "missing or invalid fields",
			"fields": verr.Fields,
		})
	case errors.As(err, &terr):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "invalid status transition",
			"from":  terr.From,
			"to":    terr.To,
		})
	case errors.Is(err, booking.ErrSlotConflict):
		http.Error(w, "time slot already booked", http.StatusConflict)
	case errors.Is(err, booking.ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	default:
		h.logger.Error("booking request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
