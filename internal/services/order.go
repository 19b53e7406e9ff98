package services

import (
	"context"

	"github.com/google/uuid"

	"ticket-checkout/internal/models"
)

// OrderService gives buyers access to their orders
type OrderService struct {
	orders OrderRepository
}

// NewOrderService creates a new order service
func NewOrderService(orders OrderRepository) *OrderService {
	return &OrderService{orders: orders}
}

// GetBuyerOrders returns the buyer's orders, newest first
func (s *OrderService) GetBuyerOrders(ctx context.Context, buyerID uuid.UUID) ([]*models.Order, error) {
	return s.orders.ListByBuyer(ctx, buyerID)
}

// GetOrderByID retrieves an order owned by the requesting buyer. Orders of
// other buyers are reported as not found.
func (s *OrderService) GetOrderByID(ctx context.Context, orderID int, buyerID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.BuyerID != buyerID {
		return nil, &models.NotFoundError{Resource: "order", ID: orderID}
	}

	return order, nil
}
