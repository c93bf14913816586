package model

import (
	"encoding/json"
	"time"
)

// Appointment statuses. Transitions between them are owned by booking.Lifecycle;
// nothing else writes Status.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Appointment is a booking for a catalog service.
// Date is "2006-01-02"; TimeSlot is "03:04 PM" (zero-padded 12-hour clock).
// DurationText carries the catalog's free-text duration ("2 Hours", "90 min")
// as entered by the site owner.
type Appointment struct {
	ID               string
	ServiceID        string
	Date             string
	TimeSlot         string
	DurationText     string
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	Status           string
	ExternalEventRef string
	CreatedAt        time.Time
}

// Service is a bookable offering from the site's catalog. Duration and Price
// are free text, rendered as-is on the services page.
type Service struct {
	ID          string
	Name        string
	Description string
	Duration    string
	Price       string
}

// ContentEntry is one key of the editable site copy (hero text, about section,
// contact details, theme settings). Value is opaque JSON.
type ContentEntry struct {
	Key   string
	Value json.RawMessage
}

type PortfolioCategory struct {
	ID          string
	Name        string
	Description string
	CoverImage  string
}

type PortfolioImage struct {
	ID          string
	CategoryID  string
	ImageURL    string
	Title       string
	Description string
	Role        string
	Year        string
}
