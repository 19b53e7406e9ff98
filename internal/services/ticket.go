package services

import (
	"context"

	"ticket-checkout/internal/models"
)

// TicketSetService exposes the ticket set catalogue
type TicketSetService struct {
	ticketSets TicketSetRepository
}

// NewTicketSetService creates a new ticket set service
func NewTicketSetService(ticketSets TicketSetRepository) *TicketSetService {
	return &TicketSetService{ticketSets: ticketSets}
}

// ListTicketSets returns all ticket sets
func (s *TicketSetService) ListTicketSets(ctx context.Context) ([]*models.TicketSet, error) {
	return s.ticketSets.List(ctx)
}

// GetTicketSet retrieves a ticket set by ID
func (s *TicketSetService) GetTicketSet(ctx context.Context, id int) (*models.TicketSet, error) {
	if id <= 0 {
		return nil, models.NewValidationError("id", "invalid ticket set id")
	}
	return s.ticketSets.GetByID(ctx, id)
}
