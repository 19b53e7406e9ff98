package services

import (
	"context"

	"ticket-checkout/internal/models"
)

// InventoryGuard checks and consumes ticket set stock
type InventoryGuard struct {
	ticketSets TicketSetRepository
}

// NewInventoryGuard creates a new inventory guard
func NewInventoryGuard(ticketSets TicketSetRepository) *InventoryGuard {
	return &InventoryGuard{ticketSets: ticketSets}
}

// CheckAndReserve verifies that alreadyHeld + requested fits into the
// ticket set's stock. Nothing is reserved in storage; stock only moves on
// purchase.
func (g *InventoryGuard) CheckAndReserve(ts *models.TicketSet, requested, alreadyHeld int) error {
	if ts.IsSoldOut() {
		return &models.OutOfStockError{TicketSetID: ts.ID, Requested: requested}
	}
	if alreadyHeld+requested > ts.Stock {
		return &models.OutOfStockError{
			TicketSetID: ts.ID,
			Requested:   requested,
			Available:   ts.Stock - alreadyHeld,
		}
	}
	return nil
}

// Decrement atomically removes quantity from the ticket set's stock
func (g *InventoryGuard) Decrement(ctx context.Context, ticketSetID, quantity int) error {
	return g.ticketSets.DecrementStock(ctx, ticketSetID, quantity)
}
