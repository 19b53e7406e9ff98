package models

import "time"

// PaymentMethod identifies how an order was paid
type PaymentMethod string

const (
	PaymentMethodPayPal PaymentMethod = "paypal"
)

// IsValid reports whether the payment method is supported
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodPayPal:
		return true
	default:
		return false
	}
}

// PendingPayment correlates a basket with a payment initiated at the gateway
// and not yet executed. There is at most one per basket.
type PendingPayment struct {
	BasketID  int       `json:"basket_id" db:"basket_id"`
	PaymentID string    `json:"payment_id" db:"payment_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// IsExpired reports whether the pending payment can no longer be executed
func (p *PendingPayment) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Reconciliation records a payment that was captured at the gateway while
// the order could not be written.
type Reconciliation struct {
	ID         int        `json:"id" db:"id"`
	BasketID   int        `json:"basket_id" db:"basket_id"`
	PaymentID  string     `json:"payment_id" db:"payment_id"`
	Reason     string     `json:"reason" db:"reason"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
}

// IsResolved reports whether an operator closed the reconciliation
func (r *Reconciliation) IsResolved() bool {
	return r.ResolvedAt != nil
}
