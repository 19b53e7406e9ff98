package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"ticket-checkout/internal/metrics"
)

// PaymentSweeper periodically deletes expired pending payments
type PaymentSweeper struct {
	ledger   *PaymentLedger
	interval time.Duration
	metrics  *metrics.CheckoutMetrics
	logger   logrus.FieldLogger
}

// NewPaymentSweeper creates a sweeper that runs every interval
func NewPaymentSweeper(ledger *PaymentLedger, interval time.Duration, m *metrics.CheckoutMetrics, logger logrus.FieldLogger) *PaymentSweeper {
	if m == nil {
		m = metrics.NewNopCheckoutMetrics()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PaymentSweeper{
		ledger:   ledger,
		interval: interval,
		metrics:  m,
		logger:   logger.WithField("component", "payment_sweeper"),
	}
}

// Run sweeps until ctx is cancelled
func (s *PaymentSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.WithField("interval", s.interval).Info("Pending payment sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Pending payment sweeper stopped")
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single purge
func (s *PaymentSweeper) Sweep(ctx context.Context) int {
	n, err := s.ledger.PurgeExpired(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to purge expired pending payments")
		return 0
	}

	if n > 0 {
		s.metrics.ExpiredPayments.Add(float64(n))
		s.logger.WithField("count", n).Info("Purged expired pending payments")
	}

	return n
}
