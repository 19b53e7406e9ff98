package services

import (
	"context"
	"fmt"
	"time"

	"ticket-checkout/internal/models"
)

// DefaultPendingPaymentTTL matches the gateway's approval window
const DefaultPendingPaymentTTL = 3 * time.Hour

// PaymentLedger tracks the one payment in flight per basket. Expired
// records behave as if they were absent.
type PaymentLedger struct {
	repo PendingPaymentRepository
	ttl  time.Duration
	now  func() time.Time
}

// NewPaymentLedger creates a ledger whose records live for ttl
func NewPaymentLedger(repo PendingPaymentRepository, ttl time.Duration, opts ...Option) *PaymentLedger {
	if ttl <= 0 {
		ttl = DefaultPendingPaymentTTL
	}
	o := buildOptions(opts)
	return &PaymentLedger{repo: repo, ttl: ttl, now: o.now}
}

// Put records paymentID for the basket, replacing any earlier record
func (l *PaymentLedger) Put(ctx context.Context, basketID int, paymentID string) (*models.PendingPayment, error) {
	if paymentID == "" {
		return nil, models.NewValidationError("paymentId", "payment id is required")
	}

	now := l.now().UTC()
	p := &models.PendingPayment{
		BasketID:  basketID,
		PaymentID: paymentID,
		CreatedAt: now,
		ExpiresAt: now.Add(l.ttl),
	}

	if err := l.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// Find returns the live pending payment for the basket
func (l *PaymentLedger) Find(ctx context.Context, basketID int) (*models.PendingPayment, error) {
	p, err := l.repo.GetByBasket(ctx, basketID)
	if err != nil {
		return nil, err
	}
	return l.live(p)
}

// Claim is Find with the record locked for the rest of the transaction
func (l *PaymentLedger) Claim(ctx context.Context, basketID int) (*models.PendingPayment, error) {
	p, err := l.repo.GetByBasketForUpdate(ctx, basketID)
	if err != nil {
		return nil, err
	}
	return l.live(p)
}

func (l *PaymentLedger) live(p *models.PendingPayment) (*models.PendingPayment, error) {
	if p.IsExpired(l.now()) {
		return nil, models.NewNoPaymentError(p.BasketID)
	}
	return p, nil
}

// Remove deletes the basket's record if there is one
func (l *PaymentLedger) Remove(ctx context.Context, basketID int) error {
	return l.repo.Delete(ctx, basketID)
}

// PurgeExpired deletes all expired records and returns how many were removed
func (l *PaymentLedger) PurgeExpired(ctx context.Context) (int, error) {
	n, err := l.repo.DeleteExpired(ctx, l.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge pending payments: %w", err)
	}
	return n, nil
}
