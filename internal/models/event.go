package models

import (
	"errors"
	"strings"
	"time"
)

// EventStatus represents the lifecycle state of an event
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCanceled  EventStatus = "canceled"
	EventStatusDeleted   EventStatus = "deleted"
)

// EventVisibility controls whether an event shows up in the public catalogue
type EventVisibility string

const (
	EventVisibilityPublic  EventVisibility = "public"
	EventVisibilityPrivate EventVisibility = "private"
)

// Event groups the ticket sets sold for one occasion
type Event struct {
	ID          int             `json:"id" db:"id"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description" db:"description"`
	StartTime   time.Time       `json:"start_time" db:"start_time"`
	EndTime     time.Time       `json:"end_time" db:"end_time"`
	Status      EventStatus     `json:"status" db:"status"`
	Visibility  EventVisibility `json:"visibility" db:"visibility"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	TicketSets  []*TicketSet    `json:"ticket_sets"`
}

// Validate validates the event data
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return errors.New("event title is required")
	}

	if len(e.Title) > 255 {
		return errors.New("event title must be less than 255 characters")
	}

	if e.StartTime.IsZero() || e.EndTime.IsZero() {
		return errors.New("event start and end time are required")
	}

	if e.EndTime.Before(e.StartTime) {
		return errors.New("event cannot end before it starts")
	}

	switch e.Status {
	case EventStatusDraft, EventStatusPublished, EventStatusCanceled, EventStatusDeleted:
	default:
		return errors.New("invalid event status")
	}

	if e.Visibility != EventVisibilityPublic && e.Visibility != EventVisibilityPrivate {
		return errors.New("invalid event visibility")
	}

	return nil
}

// IsPublic reports whether the event is visible to everyone
func (e *Event) IsPublic() bool {
	return e.Visibility == EventVisibilityPublic
}

// IsCanceled reports whether the event was called off
func (e *Event) IsCanceled() bool {
	return e.Status == EventStatusCanceled
}

// IsListed reports whether the event belongs in the public catalogue.
// Canceled events stay listed so buyers can see the cancellation.
func (e *Event) IsListed() bool {
	return e.IsPublic() && (e.Status == EventStatusPublished || e.IsCanceled())
}

// IsHappening reports whether now falls between start and end
func (e *Event) IsHappening(now time.Time) bool {
	return !now.Before(e.StartTime) && now.Before(e.EndTime)
}

// IsExpired reports whether the event is over
func (e *Event) IsExpired(now time.Time) bool {
	return !now.Before(e.EndTime)
}
