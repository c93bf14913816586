package booking

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound means the targeted appointment does not exist (or was hard
// deleted).
var ErrNotFound = errors.New("appointment not found")

// ErrSlotConflict means the store's overlap constraint rejected a write
// because the requested time range is already taken.
var ErrSlotConflict = errors.New("time slot already booked")

// ValidationError reports required booking fields that are missing or
// malformed. Nothing is persisted when it is returned.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid booking request: " + strings.Join(e.Fields, ", ")
}

// InvalidTransitionError reports a lifecycle operation that is not permitted
// from the appointment's current status.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move appointment from %s to %s", e.From, e.To)
}
