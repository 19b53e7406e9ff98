package services

import (
	"context"
	"time"

	"github.com/samber/lo"

	"ticket-checkout/internal/models"
)

// EventView is a listed event with flags derived from the current time
type EventView struct {
	*models.Event
	Canceled  bool `json:"canceled"`
	Happening bool `json:"happening"`
	Expired   bool `json:"expired"`
}

// EventService exposes the public event catalogue
type EventService struct {
	events EventRepository
	now    func() time.Time
}

// NewEventService creates a new event service
func NewEventService(events EventRepository, opts ...Option) *EventService {
	o := buildOptions(opts)
	return &EventService{events: events, now: o.now}
}

// ListEvents returns all public events with their ticket sets
func (s *EventService) ListEvents(ctx context.Context) ([]*EventView, error) {
	events, err := s.events.ListPublic(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return lo.Map(events, func(e *models.Event, _ int) *EventView {
		return newEventView(e, now)
	}), nil
}

// GetEvent retrieves a public event by ID
func (s *EventService) GetEvent(ctx context.Context, id int) (*EventView, error) {
	if id <= 0 {
		return nil, models.NewValidationError("id", "invalid event id")
	}

	event, err := s.events.GetPublicByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return newEventView(event, s.now()), nil
}

func newEventView(e *models.Event, now time.Time) *EventView {
	return &EventView{
		Event:     e,
		Canceled:  e.IsCanceled(),
		Happening: e.IsHappening(now),
		Expired:   e.IsExpired(now),
	}
}
