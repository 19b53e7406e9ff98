package services

import (
	"context"

	"github.com/google/uuid"

	"ticket-checkout/internal/logging"
	"ticket-checkout/internal/models"
)

// BuyerService registers anonymous buyers
type BuyerService struct {
	buyers BuyerRepository
}

// NewBuyerService creates a new buyer service
func NewBuyerService(buyers BuyerRepository) *BuyerService {
	return &BuyerService{buyers: buyers}
}

// Register creates a new buyer
func (s *BuyerService) Register(ctx context.Context) (*models.Buyer, error) {
	buyer, err := s.buyers.Create(ctx)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).WithField("buyer_id", buyer.ID).Info("Buyer registered")
	return buyer, nil
}

// GetBuyer retrieves a buyer by ID
func (s *BuyerService) GetBuyer(ctx context.Context, id uuid.UUID) (*models.Buyer, error) {
	return s.buyers.GetByID(ctx, id)
}
