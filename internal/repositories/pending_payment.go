package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"ticket-checkout/internal/models"
)

// PendingPaymentRepository stores the single in-flight payment per basket
type PendingPaymentRepository struct {
	db *sqlx.DB
}

// NewPendingPaymentRepository creates a new pending payment repository
func NewPendingPaymentRepository(db *sqlx.DB) *PendingPaymentRepository {
	return &PendingPaymentRepository{db: db}
}

// Upsert creates the record for the basket or replaces the existing one
func (r *PendingPaymentRepository) Upsert(ctx context.Context, p *models.PendingPayment) error {
	_, err := executor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO pending_payments (basket_id, payment_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (basket_id) DO UPDATE
		SET payment_id = EXCLUDED.payment_id,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at`,
		p.BasketID, p.PaymentID, p.CreatedAt, p.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to store pending payment: %w", err)
	}

	return nil
}

// GetByBasket returns the record for a basket, expired or not
func (r *PendingPaymentRepository) GetByBasket(ctx context.Context, basketID int) (*models.PendingPayment, error) {
	return r.get(ctx, basketID, `
		SELECT basket_id, payment_id, created_at, expires_at
		FROM pending_payments
		WHERE basket_id = $1`)
}

// GetByBasketForUpdate is GetByBasket holding a row lock until the
// surrounding transaction ends. A second caller blocks and then sees the row
// only if the first one did not delete it.
func (r *PendingPaymentRepository) GetByBasketForUpdate(ctx context.Context, basketID int) (*models.PendingPayment, error) {
	return r.get(ctx, basketID, `
		SELECT basket_id, payment_id, created_at, expires_at
		FROM pending_payments
		WHERE basket_id = $1
		FOR UPDATE`)
}

func (r *PendingPaymentRepository) get(ctx context.Context, basketID int, query string) (*models.PendingPayment, error) {
	var p models.PendingPayment
	if err := executor(ctx, r.db).GetContext(ctx, &p, query, basketID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNoPaymentError(basketID)
		}
		return nil, fmt.Errorf("failed to get pending payment: %w", err)
	}

	return &p, nil
}

// Delete removes the record for a basket. Deleting a missing record is not
// an error.
func (r *PendingPaymentRepository) Delete(ctx context.Context, basketID int) error {
	if _, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM pending_payments WHERE basket_id = $1`, basketID); err != nil {
		return fmt.Errorf("failed to delete pending payment: %w", err)
	}
	return nil
}

// DeleteExpired removes every record that expired at or before now
func (r *PendingPaymentRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM pending_payments WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired pending payments: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}
