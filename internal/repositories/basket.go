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

// BasketRepository handles baskets and their items
type BasketRepository struct {
	db *sqlx.DB
}

// NewBasketRepository creates a new basket repository
func NewBasketRepository(db *sqlx.DB) *BasketRepository {
	return &BasketRepository{db: db}
}

// GetOrCreateByBuyer returns the buyer's basket, creating an empty one on
// first access
func (r *BasketRepository) GetOrCreateByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Basket, error) {
	exec := executor(ctx, r.db)

	_, err := exec.ExecContext(ctx, `
		INSERT INTO baskets (buyer_id)
		VALUES ($1)
		ON CONFLICT (buyer_id) DO NOTHING`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create basket: %w", err)
	}

	var basket models.Basket
	err = exec.GetContext(ctx, &basket, `
		SELECT id, buyer_id, created_at, updated_at
		FROM baskets
		WHERE buyer_id = $1`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get basket: %w", err)
	}

	if err := r.loadItems(ctx, exec, &basket); err != nil {
		return nil, err
	}

	return &basket, nil
}

// GetByID retrieves a basket with its items
func (r *BasketRepository) GetByID(ctx context.Context, id int) (*models.Basket, error) {
	return r.get(ctx, id, "")
}

// GetByIDForUpdate retrieves the basket and locks its row until the
// surrounding transaction ends. Outside a transaction the lock is released
// right away.
func (r *BasketRepository) GetByIDForUpdate(ctx context.Context, id int) (*models.Basket, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *BasketRepository) get(ctx context.Context, id int, lock string) (*models.Basket, error) {
	exec := executor(ctx, r.db)

	var basket models.Basket
	err := exec.GetContext(ctx, &basket, `
		SELECT id, buyer_id, created_at, updated_at
		FROM baskets
		WHERE id = $1 `+lock, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.NotFoundError{Resource: "basket", ID: id}
		}
		return nil, fmt.Errorf("failed to get basket: %w", err)
	}

	if err := r.loadItems(ctx, exec, &basket); err != nil {
		return nil, err
	}

	return &basket, nil
}

func (r *BasketRepository) loadItems(ctx context.Context, exec Executor, basket *models.Basket) error {
	var items []models.BasketItem
	err := exec.SelectContext(ctx, &items, `
		SELECT id, basket_id, ticket_set_id, title, quantity, unit_price, created_at
		FROM basket_items
		WHERE basket_id = $1
		ORDER BY id`, basket.ID)
	if err != nil {
		return fmt.Errorf("failed to get basket items: %w", err)
	}

	basket.Items = items
	return nil
}

// AddItem inserts a new basket item and fills in its ID
func (r *BasketRepository) AddItem(ctx context.Context, item *models.BasketItem) error {
	exec := executor(ctx, r.db)

	err := exec.GetContext(ctx, item, `
		INSERT INTO basket_items (basket_id, ticket_set_id, title, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, basket_id, ticket_set_id, title, quantity, unit_price, created_at`,
		item.BasketID, item.TicketSetID, item.Title, item.Quantity, item.UnitPrice)
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewValidationError("ticketSetId", fmt.Sprintf("ticket set %d is already in the basket", item.TicketSetID))
		}
		return fmt.Errorf("failed to add basket item: %w", err)
	}

	return r.touch(ctx, exec, item.BasketID)
}

// UpdateItemQuantity sets the quantity of an item in the given basket
func (r *BasketRepository) UpdateItemQuantity(ctx context.Context, basketID, itemID, quantity int) error {
	exec := executor(ctx, r.db)

	result, err := exec.ExecContext(ctx, `
		UPDATE basket_items
		SET quantity = $3
		WHERE id = $2 AND basket_id = $1`, basketID, itemID, quantity)
	if err != nil {
		return fmt.Errorf("failed to update basket item: %w", err)
	}

	if err := requireRow(result, "basket item", itemID); err != nil {
		return err
	}

	return r.touch(ctx, exec, basketID)
}

// RemoveItem deletes an item from the given basket
func (r *BasketRepository) RemoveItem(ctx context.Context, basketID, itemID int) error {
	exec := executor(ctx, r.db)

	result, err := exec.ExecContext(ctx, `
		DELETE FROM basket_items
		WHERE id = $2 AND basket_id = $1`, basketID, itemID)
	if err != nil {
		return fmt.Errorf("failed to remove basket item: %w", err)
	}

	if err := requireRow(result, "basket item", itemID); err != nil {
		return err
	}

	return r.touch(ctx, exec, basketID)
}

// Clear deletes all items of a basket; the basket itself is kept for reuse
func (r *BasketRepository) Clear(ctx context.Context, basketID int) error {
	exec := executor(ctx, r.db)

	if _, err := exec.ExecContext(ctx, `DELETE FROM basket_items WHERE basket_id = $1`, basketID); err != nil {
		return fmt.Errorf("failed to clear basket: %w", err)
	}

	return r.touch(ctx, exec, basketID)
}

func (r *BasketRepository) touch(ctx context.Context, exec Executor, basketID int) error {
	if _, err := exec.ExecContext(ctx, `UPDATE baskets SET updated_at = NOW() WHERE id = $1`, basketID); err != nil {
		return fmt.Errorf("failed to touch basket: %w", err)
	}
	return nil
}

func requireRow(result sql.Result, resource string, id any) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &models.NotFoundError{Resource: resource, ID: id}
	}
	return nil
}
