package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trinslooks/studio-api/internal/model"
)

// Store is the full appointment store consumed by the lifecycle. It is the
// only write path for appointment status.
type Store interface {
	AvailabilityStore
	Insert(ctx context.Context, appt *model.Appointment) error
	Get(ctx context.Context, id string) (model.Appointment, error)
	UpdateStatus(ctx context.Context, id, from, to string) error
	SetEventRef(ctx context.Context, id, ref string) error
	Delete(ctx context.Context, id string) error
}

// Catalog resolves a booked service from the site's catalog.
type Catalog interface {
	GetService(ctx context.Context, id string) (model.Service, error)
}

// EmailSender delivers the customer confirmation and the operator
// notification for a booking. Best-effort.
type EmailSender interface {
	SendBookingEmails(ctx context.Context, appt model.Appointment, svc model.Service) error
}

// AlertSender pushes a short operator alert (chat group message) about a new
// booking. Best-effort.
type AlertSender interface {
	SendOperatorAlert(ctx context.Context, appt model.Appointment, svc model.Service) error
}

// CalendarClient syncs confirmed appointments to an external calendar.
// CreateEvent returns an opaque event reference, or "" when the client is
// not configured. Best-effort.
type CalendarClient interface {
	CreateEvent(ctx context.Context, appt model.Appointment) (string, error)
	DeleteEvent(ctx context.Context, ref string) error
}

// allowedTransitions defines the appointment state machine. completed and
// cancelled are terminal; deletion is a separate hard-delete, not a
// transition.
var allowedTransitions = map[string][]string{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCompleted, model.StatusCancelled},
}

func transitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Lifecycle owns appointment creation, status transitions and their side
// effects. State changes are committed first; notification, alert and
// calendar calls run afterwards with a bounded timeout, and their failures
// come back as warnings instead of errors.
type Lifecycle struct {
	store             Store
	catalog           Catalog
	emails            EmailSender
	alerts            AlertSender
	calendar          CalendarClient
	logger            *slog.Logger
	sideEffectTimeout time.Duration
	now               func() time.Time
}

func NewLifecycle(store Store, catalog Catalog, emails EmailSender, alerts AlertSender, calendar CalendarClient, logger *slog.Logger, sideEffectTimeout time.Duration) *Lifecycle {
	if sideEffectTimeout <= 0 {
		sideEffectTimeout = 10 * time.Second
	}
	return &Lifecycle{
		store:             store,
		catalog:           catalog,
		emails:            emails,
		alerts:            alerts,
		calendar:          calendar,
		logger:            logger,
		sideEffectTimeout: sideEffectTimeout,
		now:               time.Now,
	}
}

type BookingRequest struct {
	ServiceID     string
	Date          string
	TimeSlot      string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

type BookingResult struct {
	AppointmentID string
	Status        string
	Warnings      []string
}

type TransitionResult struct {
	Status   string
	Warnings []string
}

// Book validates the request, persists a pending appointment, and fires the
// booking notifications. A ValidationError means nothing was written; a
// notification failure never unwinds the booking.
func (l *Lifecycle) Book(ctx context.Context, req BookingRequest) (BookingResult, error) {
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.Date = strings.TrimSpace(req.Date)
	req.TimeSlot = strings.TrimSpace(req.TimeSlot)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)

	var missing []string
	if req.ServiceID == "" {
		missing = append(missing, "service_id")
	}
	if req.CustomerName == "" {
		missing = append(missing, "customer_name")
	}
	if req.CustomerEmail == "" {
		missing = append(missing, "customer_email")
	}
	if req.CustomerPhone == "" {
		missing = append(missing, "customer_phone")
	}
	if req.Date == "" {
		missing = append(missing, "date")
	} else if _, err := time.Parse(DateLayout, req.Date); err != nil {
		missing = append(missing, "date")
	}
	if req.TimeSlot == "" {
		missing = append(missing, "time_slot")
	} else if req.Date != "" {
		if _, err := SlotStart(req.Date, req.TimeSlot); err != nil {
			missing = append(missing, "time_slot")
		}
	}
	if len(missing) > 0 {
		return BookingResult{}, &ValidationError{Fields: missing}
	}

	svc, err := l.catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return BookingResult{}, &ValidationError{Fields: []string{"service_id"}}
		}
		return BookingResult{}, err
	}

	appt := model.Appointment{
		ID:            uuid.NewString(),
		ServiceID:     svc.ID,
		Date:          req.Date,
		TimeSlot:      req.TimeSlot,
		DurationText:  svc.Duration,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Status:        model.StatusPending,
		CreatedAt:     l.now().UTC(),
	}
	if err := l.store.Insert(ctx, &appt); err != nil {
		return BookingResult{}, err
	}

	warnings := l.runSideEffects(ctx,
		sideEffect{"booking emails", func(ctx context.Context) error {
			return l.emails.SendBookingEmails(ctx, appt, svc)
		}},
		sideEffect{"operator alert", func(ctx context.Context) error {
			return l.alerts.SendOperatorAlert(ctx, appt, svc)
		}},
	)

	return BookingResult{AppointmentID: appt.ID, Status: appt.Status, Warnings: warnings}, nil
}

// Confirm moves a pending appointment to confirmed, then tries to create the
// external calendar event and record its reference.
func (l *Lifecycle) Confirm(ctx context.Context, id string) (TransitionResult, error) {
	appt, err := l.transition(ctx, id, model.StatusConfirmed)
	if err != nil {
		return TransitionResult{}, err
	}

	var warnings []string
	callCtx, cancel := l.sideEffectContext(ctx)
	defer cancel()
	ref, err := l.calendar.CreateEvent(callCtx, appt)
	if err != nil {
		l.logger.Warn("calendar event creation failed", "appointment_id", id, "err", err)
		warnings = append(warnings, "calendar sync failed: "+err.Error())
	} else if ref != "" {
		if err := l.store.SetEventRef(ctx, id, ref); err != nil {
			l.logger.Warn("storing calendar event ref failed", "appointment_id", id, "err", err)
			warnings = append(warnings, "calendar reference not saved")
		}
	}

	return TransitionResult{Status: model.StatusConfirmed, Warnings: warnings}, nil
}

// Cancel moves a pending or confirmed appointment to cancelled and removes
// the linked calendar event if one exists. A calendar failure never blocks
// the cancellation; the slot is freed either way because cancelled
// appointments are excluded from availability.
func (l *Lifecycle) Cancel(ctx context.Context, id string) (TransitionResult, error) {
	appt, err := l.transition(ctx, id, model.StatusCancelled)
	if err != nil {
		return TransitionResult{}, err
	}

	var warnings []string
	if appt.ExternalEventRef != "" {
		callCtx, cancel := l.sideEffectContext(ctx)
		defer cancel()
		if err := l.calendar.DeleteEvent(callCtx, appt.ExternalEventRef); err != nil {
			l.logger.Warn("calendar event deletion failed", "appointment_id", id, "err", err)
			warnings = append(warnings, "calendar event not removed: "+err.Error())
		}
	}

	return TransitionResult{Status: model.StatusCancelled, Warnings: warnings}, nil
}

// Complete moves a confirmed appointment to completed. No side effects.
func (l *Lifecycle) Complete(ctx context.Context, id string) (TransitionResult, error) {
	if _, err := l.transition(ctx, id, model.StatusCompleted); err != nil {
		return TransitionResult{}, err
	}
	return TransitionResult{Status: model.StatusCompleted}, nil
}

// Delete hard-deletes an appointment regardless of status.
func (l *Lifecycle) Delete(ctx context.Context, id string) error {
	return l.store.Delete(ctx, id)
}

// transition loads the appointment, checks the state machine, and commits the
// status change. The returned appointment reflects the state before the
// transition (callers need the old ExternalEventRef on cancel).
func (l *Lifecycle) transition(ctx context.Context, id, to string) (model.Appointment, error) {
	appt, err := l.store.Get(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if !transitionAllowed(appt.Status, to) {
		return model.Appointment{}, &InvalidTransitionError{From: appt.Status, To: to}
	}
	if err := l.store.UpdateStatus(ctx, id, appt.Status, to); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

type sideEffect struct {
	name string
	run  func(context.Context) error
}

// runSideEffects fans the calls out concurrently, waits for all of them
// within the configured timeout, and turns each failure into a warning. The
// context is detached from the request so a client disconnect cannot cancel
// half-sent notifications.
func (l *Lifecycle) runSideEffects(ctx context.Context, effects ...sideEffect) []string {
	callCtx, cancel := l.sideEffectContext(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		warnings []string
		wg       sync.WaitGroup
	)
	for _, eff := range effects {
		wg.Add(1)
		go func(eff sideEffect) {
			defer wg.Done()
			if err := eff.run(callCtx); err != nil {
				l.logger.Warn("side effect failed", "effect", eff.name, "err", err)
				mu.Lock()
				warnings = append(warnings, eff.name+" failed: "+err.Error())
				mu.Unlock()
			}
		}(eff)
	}
	wg.Wait()
	return warnings
}

func (l *Lifecycle) sideEffectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), l.sideEffectTimeout)
}
