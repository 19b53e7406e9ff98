package services

import (
	"context"

	"github.com/google/uuid"

	"ticket-checkout/internal/logging"
	"ticket-checkout/internal/models"
)

// BasketService handles basket business logic. Every successful change to a
// basket drops its pending payment, so an approved payment always matches
// the basket it was created for.
type BasketService struct {
	tx         Transactor
	baskets    BasketRepository
	ticketSets TicketSetRepository
	inventory  *InventoryGuard
	ledger     *PaymentLedger
}

// NewBasketService creates a new basket service
func NewBasketService(
	tx Transactor,
	baskets BasketRepository,
	ticketSets TicketSetRepository,
	inventory *InventoryGuard,
	ledger *PaymentLedger,
) *BasketService {
	return &BasketService{
		tx:         tx,
		baskets:    baskets,
		ticketSets: ticketSets,
		inventory:  inventory,
		ledger:     ledger,
	}
}

// GetBasket returns the buyer's basket, creating it on first access
func (s *BasketService) GetBasket(ctx context.Context, buyerID uuid.UUID) (*models.Basket, error) {
	var basket *models.Basket
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		b, err := s.baskets.GetOrCreateByBuyer(ctx, buyerID)
		if err != nil {
			return err
		}
		basket = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return basket, nil
}

// AddItem puts quantity tickets of a ticket set into the basket. A ticket
// set already in the basket has its quantity increased.
func (s *BasketService) AddItem(ctx context.Context, basketID, ticketSetID, quantity int) (*models.Basket, error) {
	if err := models.ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	return s.mutate(ctx, basketID, func(ctx context.Context, basket *models.Basket) error {
		ts, err := s.ticketSets.GetByID(ctx, ticketSetID)
		if err != nil {
			return err
		}

		if existing := basket.ItemFor(ticketSetID); existing != nil {
			total := existing.Quantity + quantity
			if err := models.ValidateQuantity(total); err != nil {
				return err
			}
			if err := s.inventory.CheckAndReserve(ts, quantity, existing.Quantity); err != nil {
				return err
			}
			return s.baskets.UpdateItemQuantity(ctx, basketID, existing.ID, total)
		}

		if err := s.inventory.CheckAndReserve(ts, quantity, 0); err != nil {
			return err
		}

		item := models.NewBasketItem(basketID, ts, quantity)
		return s.baskets.AddItem(ctx, &item)
	})
}

// UpdateItemQuantity replaces the quantity of a basket item
func (s *BasketService) UpdateItemQuantity(ctx context.Context, basketID, itemID, quantity int) (*models.Basket, error) {
	if err := models.ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	return s.mutate(ctx, basketID, func(ctx context.Context, basket *models.Basket) error {
		item := basket.Item(itemID)
		if item == nil {
			return &models.NotFoundError{Resource: "basket item", ID: itemID}
		}

		ts, err := s.ticketSets.GetByID(ctx, item.TicketSetID)
		if err != nil {
			return err
		}

		if err := s.inventory.CheckAndReserve(ts, quantity, 0); err != nil {
			return err
		}

		return s.baskets.UpdateItemQuantity(ctx, basketID, itemID, quantity)
	})
}

// RemoveItem deletes an item from the basket
func (s *BasketService) RemoveItem(ctx context.Context, basketID, itemID int) (*models.Basket, error) {
	return s.mutate(ctx, basketID, func(ctx context.Context, basket *models.Basket) error {
		if basket.Item(itemID) == nil {
			return &models.NotFoundError{Resource: "basket item", ID: itemID}
		}
		return s.baskets.RemoveItem(ctx, basketID, itemID)
	})
}

// Clear removes every item from the basket
func (s *BasketService) Clear(ctx context.Context, basketID int) (*models.Basket, error) {
	return s.mutate(ctx, basketID, func(ctx context.Context, _ *models.Basket) error {
		return s.baskets.Clear(ctx, basketID)
	})
}

// mutate locks the basket, applies fn, drops the pending payment and
// returns the basket as stored afterwards, all in one transaction.
func (s *BasketService) mutate(ctx context.Context, basketID int, fn func(ctx context.Context, basket *models.Basket) error) (*models.Basket, error) {
	var updated *models.Basket
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		basket, err := s.baskets.GetByIDForUpdate(ctx, basketID)
		if err != nil {
			return err
		}

		if err := fn(ctx, basket); err != nil {
			return err
		}

		if err := s.ledger.Remove(ctx, basketID); err != nil {
			return err
		}

		updated, err = s.baskets.GetByID(ctx, basketID)
		return err
	})
	if err != nil {
		logging.FromContext(ctx).WithError(err).WithField("basket_id", basketID).Debug("Basket change rejected")
		return nil, err
	}

	return updated, nil
}
