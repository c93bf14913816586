package booking

import (
	"fmt"
	"time"
)

// Canonical wire formats for appointment fields.
const (
	DateLayout = "2006-01-02"
	SlotLayout = "03:04 PM"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the half-open intervals intersect. Touching
// endpoints do not overlap, so back-to-back bookings are allowed.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// DayWindow resolves a calendar date plus opening clock times ("09:00",
// "18:00") into the concrete business window for that day.
func DayWindow(date, openClock, closeClock string) (Interval, error) {
	day, err := time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil {
		return Interval{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	open, err := time.Parse("15:04", openClock)
	if err != nil {
		return Interval{}, fmt.Errorf("invalid opening time %q: %w", openClock, err)
	}
	close, err := time.Parse("15:04", closeClock)
	if err != nil {
		return Interval{}, fmt.Errorf("invalid closing time %q: %w", closeClock, err)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), open.Hour(), open.Minute(), 0, 0, time.UTC)
	end := time.Date(day.Year(), day.Month(), day.Day(), close.Hour(), close.Minute(), 0, 0, time.UTC)
	if !end.After(start) {
		return Interval{}, fmt.Errorf("closing time %q not after opening time %q", closeClock, openClock)
	}
	return Interval{Start: start, End: end}, nil
}

// CandidateSlots returns every possible start time in [open, close) at step
// increments. Pure function of its inputs.
func CandidateSlots(open, close time.Time, step time.Duration) []time.Time {
	if step <= 0 || !close.After(open) {
		return nil
	}
	var slots []time.Time
	for t := open; t.Before(close); t = t.Add(step) {
		slots = append(slots, t)
	}
	return slots
}

// FilterAvailable keeps the candidates where a booking of the given duration
// would neither run past close nor overlap a busy interval. Order is
// preserved.
func FilterAvailable(candidates []time.Time, duration time.Duration, close time.Time, busy []Interval) []time.Time {
	if duration <= 0 {
		return nil
	}
	var out []time.Time
	for _, s := range candidates {
		end := s.Add(duration)
		if end.After(close) {
			continue
		}
		if overlapsAny(Interval{Start: s, End: end}, busy) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func overlapsAny(slot Interval, busy []Interval) bool {
	for _, b := range busy {
		if slot.Overlaps(b) {
			return true
		}
	}
	return false
}

// SlotStart resolves an appointment's date + time slot into a concrete start
// time ("2026-03-14" + "02:00 PM" -> 14:00 UTC that day).
func SlotStart(date, timeSlot string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+SlotLayout, date+" "+timeSlot, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slot %q %q: %w", date, timeSlot, err)
	}
	return t, nil
}

// FormatSlot renders a start time in the canonical slot form, e.g. "09:00 AM".
func FormatSlot(t time.Time) string {
	return t.Format(SlotLayout)
}
