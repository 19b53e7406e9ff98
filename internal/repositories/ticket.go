package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ticket-checkout/internal/models"
)

const ticketSetColumns = "id, event_id, title, price, stock, created_at, updated_at"

// TicketSetRepository handles ticket set data operations
type TicketSetRepository struct {
	db *sqlx.DB
}

// NewTicketSetRepository creates a new ticket set repository
func NewTicketSetRepository(db *sqlx.DB) *TicketSetRepository {
	return &TicketSetRepository{db: db}
}

// Create inserts a new ticket set
func (r *TicketSetRepository) Create(ctx context.Context, ts *models.TicketSet) error {
	if err := ts.Validate(); err != nil {
		return models.NewValidationError("ticketSet", err.Error())
	}

	err := executor(ctx, r.db).GetContext(ctx, ts, `
		INSERT INTO ticket_sets (event_id, title, price, stock)
		VALUES ($1, $2, $3, $4)
		RETURNING `+ticketSetColumns,
		ts.EventID, ts.Title, ts.Price, ts.Stock)
	if err != nil {
		return fmt.Errorf("failed to create ticket set: %w", err)
	}

	return nil
}

// GetByID retrieves a ticket set by ID
func (r *TicketSetRepository) GetByID(ctx context.Context, id int) (*models.TicketSet, error) {
	var ts models.TicketSet
	err := executor(ctx, r.db).GetContext(ctx, &ts, `
		SELECT `+ticketSetColumns+`
		FROM ticket_sets
		WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.NotFoundError{Resource: "ticket set", ID: id}
		}
		return nil, fmt.Errorf("failed to get ticket set: %w", err)
	}

	return &ts, nil
}

// List returns all ticket sets ordered by id
func (r *TicketSetRepository) List(ctx context.Context) ([]*models.TicketSet, error) {
	var sets []*models.TicketSet
	err := executor(ctx, r.db).SelectContext(ctx, &sets, `
		SELECT `+ticketSetColumns+`
		FROM ticket_sets
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket sets: %w", err)
	}

	return sets, nil
}

// ListByEvents returns the ticket sets of the given events
func (r *TicketSetRepository) ListByEvents(ctx context.Context, eventIDs []int) ([]*models.TicketSet, error) {
	var sets []*models.TicketSet
	err := executor(ctx, r.db).SelectContext(ctx, &sets, `
		SELECT `+ticketSetColumns+`
		FROM ticket_sets
		WHERE event_id = ANY($1)
		ORDER BY id`, pq.Array(eventIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket sets by event: %w", err)
	}

	return sets, nil
}

// DecrementStock reduces stock by quantity in a single conditional update.
// Concurrent purchasers of the same ticket set serialize on the row, so stock
// never drops below zero.
func (r *TicketSetRepository) DecrementStock(ctx context.Context, id int, quantity int) error {
	if quantity <= 0 {
		return models.NewValidationError("quantity", "quantity must be greater than zero")
	}

	exec := executor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
		UPDATE ticket_sets
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2`, id, quantity)
	if err != nil {
		if isCheckViolation(err) {
			return &models.OutOfStockError{TicketSetID: id, Requested: quantity}
		}
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 1 {
		return nil
	}

	var stock int
	if err := exec.GetContext(ctx, &stock, `SELECT stock FROM ticket_sets WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.NotFoundError{Resource: "ticket set", ID: id}
		}
		return fmt.Errorf("failed to check ticket availability: %w", err)
	}

	return &models.OutOfStockError{TicketSetID: id, Requested: quantity, Available: stock}
}
