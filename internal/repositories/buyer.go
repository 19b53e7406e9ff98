package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ticket-checkout/internal/models"
)

// BuyerRepository handles buyer records
type BuyerRepository struct {
	db *sqlx.DB
}

func NewBuyerRepository(db *sqlx.DB) *BuyerRepository {
	return &BuyerRepository{db: db}
}

// Create inserts a buyer with a fresh id
func (r *BuyerRepository) Create(ctx context.Context) (*models.Buyer, error) {
	var buyer models.Buyer
	err := executor(ctx, r.db).GetContext(ctx, &buyer, `
		INSERT INTO buyers (id)
		VALUES ($1)
		RETURNING id, created_at`, uuid.New())
	if err != nil {
		return nil, fmt.Errorf("failed to create buyer: %w", err)
	}
	return &buyer, nil
}

func (r *BuyerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Buyer, error) {
	var buyer models.Buyer
	err := executor(ctx, r.db).GetContext(ctx, &buyer, `
		SELECT id, created_at
		FROM buyers
		WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.NotFoundError{Resource: "buyer", ID: id}
		}
		return nil, fmt.Errorf("failed to get buyer: %w", err)
	}
	return &buyer, nil
}
