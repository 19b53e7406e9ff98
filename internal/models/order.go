package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"
	"github.com/samber/lo"
)

// Order is the finalized result of a successful purchase
type Order struct {
	ID            int             `json:"id" db:"id"`
	OrderNumber   string          `json:"order_number" db:"order_number"`
	BuyerID       uuid.UUID       `json:"buyer_id" db:"buyer_id"`
	PaymentMethod PaymentMethod   `json:"payment_method" db:"payment_method"`
	PaymentID     string          `json:"payment_id" db:"payment_id"`
	TotalAmount   int             `json:"total_amount" db:"total_amount"` // Amount in cents
	Currency      string          `json:"currency" db:"currency"`
	OrderedAt     time.Time       `json:"ordered_at" db:"ordered_at"`
	Positions     []OrderPosition `json:"positions"`
}

// OrderPosition is one line of an order, copied from a basket item
type OrderPosition struct {
	ID          int     `json:"id" db:"id"`
	OrderID     int     `json:"order_id" db:"order_id"`
	TicketSetID int     `json:"ticket_set_id" db:"ticket_set_id"`
	Title       string  `json:"title" db:"title"`
	Quantity    int     `json:"quantity" db:"quantity"`
	UnitPrice   int     `json:"unit_price" db:"unit_price"` // in cents
	Ticket      *Ticket `json:"ticket"`
}

// NewOrderPosition copies title, quantity and unit price from the basket item
func NewOrderPosition(item BasketItem, ticket *Ticket) OrderPosition {
	return OrderPosition{
		TicketSetID: item.TicketSetID,
		Title:       item.Title,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		Ticket:      ticket,
	}
}

// TotalPrice returns quantity * unit price in cents
func (p OrderPosition) TotalPrice() int {
	return p.Quantity * p.UnitPrice
}

// GenerateOrderNumber generates a unique order number, e.g. ORD-20240101-5gK8nQ2r
func GenerateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), shortuuid.New()[:8])
}

// CalculateTotal sums the position totals
func (o *Order) CalculateTotal() int {
	return lo.SumBy(o.Positions, func(p OrderPosition) int {
		return p.TotalPrice()
	})
}

// Tickets returns the tickets of all positions
func (o *Order) Tickets() []*Ticket {
	return lo.FilterMap(o.Positions, func(p OrderPosition, _ int) (*Ticket, bool) {
		return p.Ticket, p.Ticket != nil
	})
}

// Validate validates the order before it is persisted
func (o *Order) Validate() error {
	if !strings.HasPrefix(o.OrderNumber, "ORD-") {
		return errors.New("invalid order number format")
	}

	if o.BuyerID == uuid.Nil {
		return errors.New("buyer is required")
	}

	if !o.PaymentMethod.IsValid() {
		return errors.New("invalid payment method")
	}

	if o.PaymentID == "" {
		return errors.New("payment id is required")
	}

	if len(o.Positions) == 0 {
		return errors.New("order must have at least one position")
	}

	for _, p := range o.Positions {
		if p.Quantity <= 0 {
			return errors.New("position quantity must be positive")
		}
		if p.Ticket == nil {
			return fmt.Errorf("position for ticket set %d has no ticket", p.TicketSetID)
		}
	}

	if o.TotalAmount != o.CalculateTotal() {
		return errors.New("order total does not match positions")
	}

	return nil
}
