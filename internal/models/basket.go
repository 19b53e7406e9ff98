package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Basket represents a buyer's shopping basket
type Basket struct {
	ID        int          `json:"id" db:"id"`
	BuyerID   uuid.UUID    `json:"buyer_id" db:"buyer_id"`
	Items     []BasketItem `json:"items"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// BasketItem is one basket line. Title and UnitPrice are snapshots taken when
// the ticket set was first added and do not follow later price changes.
type BasketItem struct {
	ID          int       `json:"id" db:"id"`
	BasketID    int       `json:"basket_id" db:"basket_id"`
	TicketSetID int       `json:"ticket_set_id" db:"ticket_set_id"`
	Title       string    `json:"title" db:"title"`
	Quantity    int       `json:"quantity" db:"quantity"`
	UnitPrice   int       `json:"unit_price" db:"unit_price"` // in cents
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NewBasketItem snapshots the ticket set's title and price
func NewBasketItem(basketID int, ticketSet *TicketSet, quantity int) BasketItem {
	return BasketItem{
		BasketID:    basketID,
		TicketSetID: ticketSet.ID,
		Title:       ticketSet.Title,
		Quantity:    quantity,
		UnitPrice:   ticketSet.Price,
	}
}

// TotalPrice returns quantity * unit price in cents
func (i BasketItem) TotalPrice() int {
	return i.Quantity * i.UnitPrice
}

// TotalPrice returns the sum of all item totals in cents
func (b *Basket) TotalPrice() int {
	return lo.SumBy(b.Items, func(item BasketItem) int {
		return item.TotalPrice()
	})
}

// IsEmpty reports whether the basket has no items
func (b *Basket) IsEmpty() bool {
	return len(b.Items) == 0
}

// ItemFor returns the item holding the given ticket set, or nil
func (b *Basket) ItemFor(ticketSetID int) *BasketItem {
	for i := range b.Items {
		if b.Items[i].TicketSetID == ticketSetID {
			return &b.Items[i]
		}
	}
	return nil
}

// Item returns the item with the given id, or nil if it is not in this basket
func (b *Basket) Item(itemID int) *BasketItem {
	for i := range b.Items {
		if b.Items[i].ID == itemID {
			return &b.Items[i]
		}
	}
	return nil
}

// SameContents reports whether both baskets hold the same lines with the same
// quantities and prices
func (b *Basket) SameContents(other *Basket) bool {
	if len(b.Items) != len(other.Items) {
		return false
	}
	for i, item := range b.Items {
		o := other.Items[i]
		if item.ID != o.ID || item.TicketSetID != o.TicketSetID || item.Quantity != o.Quantity || item.UnitPrice != o.UnitPrice {
			return false
		}
	}
	return true
}

// TotalQuantity returns the number of tickets across all items
func (b *Basket) TotalQuantity() int {
	return lo.SumBy(b.Items, func(item BasketItem) int {
		return item.Quantity
	})
}
