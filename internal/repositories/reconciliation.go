package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ticket-checkout/internal/models"
)

// ReconciliationRepository records captured payments that produced no order
type ReconciliationRepository struct {
	db *sqlx.DB
}

func NewReconciliationRepository(db *sqlx.DB) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

func (r *ReconciliationRepository) Create(ctx context.Context, rec *models.Reconciliation) error {
	err := executor(ctx, r.db).GetContext(ctx, rec, `
		INSERT INTO reconciliations (basket_id, payment_id, reason)
		VALUES ($1, $2, $3)
		RETURNING id, basket_id, payment_id, reason, created_at, resolved_at`,
		rec.BasketID, rec.PaymentID, rec.Reason)
	if err != nil {
		return fmt.Errorf("failed to create reconciliation: %w", err)
	}
	return nil
}

func (r *ReconciliationRepository) ListUnresolved(ctx context.Context) ([]*models.Reconciliation, error) {
	var recs []*models.Reconciliation
	err := executor(ctx, r.db).SelectContext(ctx, &recs, `
		SELECT id, basket_id, payment_id, reason, created_at, resolved_at
		FROM reconciliations
		WHERE resolved_at IS NULL
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliations: %w", err)
	}
	return recs, nil
}

// HasUnresolved reports whether the payment has an open reconciliation record
func (r *ReconciliationRepository) HasUnresolved(ctx context.Context, paymentID string) (bool, error) {
	var exists bool
	err := executor(ctx, r.db).GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM reconciliations
			WHERE payment_id = $1 AND resolved_at IS NULL
		)`, paymentID)
	if err != nil {
		return false, fmt.Errorf("failed to check reconciliation: %w", err)
	}
	return exists, nil
}

func (r *ReconciliationRepository) Resolve(ctx context.Context, id int) error {
	result, err := executor(ctx, r.db).ExecContext(ctx, `
		UPDATE reconciliations
		SET resolved_at = NOW()
		WHERE id = $1 AND resolved_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to resolve reconciliation: %w", err)
	}
	return requireRow(result, "reconciliation", id)
}
