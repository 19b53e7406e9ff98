package models

import (
	"errors"
	"strings"
	"time"
)

// TicketSet is a purchasable ticket type with a price and remaining stock
type TicketSet struct {
	ID        int       `json:"id" db:"id"`
	EventID   *int      `json:"event_id,omitempty" db:"event_id"`
	Title     string    `json:"title" db:"title"`
	Price     int       `json:"price" db:"price"` // Price in cents
	Stock     int       `json:"stock" db:"stock"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Ticket is the admission issued for an order position
type Ticket struct {
	ID              int        `json:"id" db:"id"`
	OrderPositionID int        `json:"order_position_id" db:"order_position_id"`
	Code            string     `json:"code" db:"code"`
	FirstName       string     `json:"first_name" db:"first_name"`
	LastName        string     `json:"last_name" db:"last_name"`
	UsedAt          *time.Time `json:"used_at,omitempty" db:"used_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// Validate validates the ticket set data
func (ts *TicketSet) Validate() error {
	if strings.TrimSpace(ts.Title) == "" {
		return errors.New("ticket set title is required")
	}

	if len(ts.Title) > 255 {
		return errors.New("ticket set title must be less than 255 characters")
	}

	if ts.Price < 0 {
		return errors.New("ticket set price cannot be negative")
	}

	if ts.Stock < 0 {
		return errors.New("ticket set stock cannot be negative")
	}

	return nil
}

// IsSoldOut reports whether no stock is left
func (ts *TicketSet) IsSoldOut() bool {
	return ts.Stock <= 0
}

// HolderName returns the full name printed on the ticket
func (t *Ticket) HolderName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}
