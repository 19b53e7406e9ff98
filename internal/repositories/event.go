package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"ticket-checkout/internal/models"
)

const eventColumns = "id, title, description, start_time, end_time, status, visibility, created_at"

// EventRepository handles events and loads the ticket sets sold for them
type EventRepository struct {
	db         *sqlx.DB
	ticketSets *TicketSetRepository
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db, ticketSets: NewTicketSetRepository(db)}
}

// Create inserts a new event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if err := event.Validate(); err != nil {
		return models.NewValidationError("event", err.Error())
	}

	err := executor(ctx, r.db).GetContext(ctx, event, `
		INSERT INTO events (title, description, start_time, end_time, status, visibility)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+eventColumns,
		event.Title, event.Description, event.StartTime, event.EndTime, event.Status, event.Visibility)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// ListPublic returns the events of the public catalogue ordered by start
// time, each with its ticket sets
func (r *EventRepository) ListPublic(ctx context.Context) ([]*models.Event, error) {
	var events []*models.Event
	err := executor(ctx, r.db).SelectContext(ctx, &events, `
		SELECT `+eventColumns+`
		FROM events
		WHERE visibility = $1 AND status IN ($2, $3)
		ORDER BY start_time, id`,
		models.EventVisibilityPublic, models.EventStatusPublished, models.EventStatusCanceled)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	if err := r.attachTicketSets(ctx, events); err != nil {
		return nil, err
	}

	return events, nil
}

// GetPublicByID retrieves a listed event with its ticket sets. Unlisted
// events are reported as not found.
func (r *EventRepository) GetPublicByID(ctx context.Context, id int) (*models.Event, error) {
	var event models.Event
	err := executor(ctx, r.db).GetContext(ctx, &event, `
		SELECT `+eventColumns+`
		FROM events
		WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.NotFoundError{Resource: "event", ID: id}
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	if !event.IsListed() {
		return nil, &models.NotFoundError{Resource: "event", ID: id}
	}

	if err := r.attachTicketSets(ctx, []*models.Event{&event}); err != nil {
		return nil, err
	}

	return &event, nil
}

func (r *EventRepository) attachTicketSets(ctx context.Context, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}

	ids := lo.Map(events, func(e *models.Event, _ int) int { return e.ID })
	sets, err := r.ticketSets.ListByEvents(ctx, ids)
	if err != nil {
		return err
	}

	byEvent := lo.GroupBy(sets, func(ts *models.TicketSet) int { return *ts.EventID })
	for _, e := range events {
		e.TicketSets = byEvent[e.ID]
		if e.TicketSets == nil {
			e.TicketSets = []*models.TicketSet{}
		}
	}

	return nil
}
