package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trinslooks/studio-api/internal/model"
)

// AvailabilityStore is the read side of the appointment store needed to
// answer "what is free on this date". Cancelled appointments must not be
// returned.
type AvailabilityStore interface {
	ListActiveByDate(ctx context.Context, date string) ([]model.Appointment, error)
}

// Hours describes the bookable business day.
type Hours struct {
	Open  string // "09:00"
	Close string // "18:00"
	Step  time.Duration
}

func DefaultHours() Hours {
	return Hours{Open: "09:00", Close: "18:00", Step: 30 * time.Minute}
}

// Availability computes free appointment start times for a date against a
// snapshot of existing bookings.
type Availability struct {
	store  AvailabilityStore
	hours  Hours
	logger *slog.Logger
}

func NewAvailability(store AvailabilityStore, hours Hours, logger *slog.Logger) *Availability {
	if hours.Step <= 0 {
		hours.Step = 30 * time.Minute
	}
	return &Availability{store: store, hours: hours, logger: logger}
}

// AvailableSlots returns the formatted start times ("09:00 AM", ...) on date
// at which a service of the given free-text duration fits without overlapping
// an existing non-cancelled appointment or running past closing. Missing or
// unusable inputs yield an empty list rather than an error, matching the
// public widget's behavior.
func (a *Availability) AvailableSlots(ctx context.Context, date, durationText string) ([]string, error) {
	if date == "" || durationText == "" {
		return []string{}, nil
	}

	window, err := DayWindow(date, a.hours.Open, a.hours.Close)
	if err != nil {
		a.logger.Debug("unusable availability query", "date", date, "err", err)
		return []string{}, nil
	}

	duration := ParseDuration(durationText)

	existing, err := a.store.ListActiveByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load appointments for %s: %w", date, err)
	}
	busy := a.blockedIntervals(existing)

	candidates := CandidateSlots(window.Start, window.End, a.hours.Step)
	free := FilterAvailable(candidates, duration, window.End, busy)

	out := make([]string, 0, len(free))
	for _, s := range free {
		out = append(out, FormatSlot(s))
	}
	return out, nil
}

// blockedIntervals maps each existing appointment to [start, start+duration)
// using the appointment's own recorded duration text. Rows with a slot we can
// no longer parse are skipped rather than blocking the whole day.
func (a *Availability) blockedIntervals(appts []model.Appointment) []Interval {
	busy := make([]Interval, 0, len(appts))
	for _, appt := range appts {
		start, err := SlotStart(appt.Date, appt.TimeSlot)
		if err != nil {
			a.logger.Warn("skipping appointment with unparseable slot",
				"appointment_id", appt.ID, "err", err)
			continue
		}
		busy = append(busy, Interval{
			Start: start,
			End:   start.Add(ParseDuration(appt.DurationText)),
		})
	}
	return busy
}
