package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ticket-checkout/internal/logging"
	"ticket-checkout/internal/metrics"
	"ticket-checkout/internal/models"
)

// PurchaseService executes an approved payment and turns the basket into an
// order.
type PurchaseService struct {
	tx              Transactor
	baskets         BasketRepository
	orders          OrderRepository
	reconciliations ReconciliationRepository
	inventory       *InventoryGuard
	ledger          *PaymentLedger
	gateway         PaymentGateway
	settings        CheckoutSettings
	tracer          trace.Tracer
	metrics         *metrics.CheckoutMetrics
	now             func() time.Time
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(
	tx Transactor,
	baskets BasketRepository,
	orders OrderRepository,
	reconciliations ReconciliationRepository,
	inventory *InventoryGuard,
	ledger *PaymentLedger,
	gateway PaymentGateway,
	settings CheckoutSettings,
	opts ...Option,
) *PurchaseService {
	o := buildOptions(opts)
	return &PurchaseService{
		tx:              tx,
		baskets:         baskets,
		orders:          orders,
		reconciliations: reconciliations,
		inventory:       inventory,
		ledger:          ledger,
		gateway:         gateway,
		settings:        settings,
		tracer:          o.tracer,
		metrics:         o.metrics,
		now:             o.now,
	}
}

// Purchase captures the basket's pending payment and writes the order.
//
// Everything runs in one transaction that starts by locking the pending
// payment, so a second purchase of the same basket waits and then finds no
// payment. Failures before the capture leave no trace. Failures after it
// roll back the stock, order and basket changes and come back as a
// *models.FulfilmentError with a reconciliation record written.
func (s *PurchaseService) Purchase(ctx context.Context, basketID int, form *models.PurchaseForm) (_ *models.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "checkout.purchase", trace.WithAttributes(
		attribute.Int("basket.id", basketID),
	))
	defer func() {
		s.metrics.Purchases.WithLabelValues(purchaseOutcome(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if form == nil {
		return nil, models.NewValidationError("", "purchase form is required")
	}

	var (
		order    *models.Order
		pending  *models.PendingPayment
		captured bool
	)

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.ledger.Claim(ctx, basketID)
		if err != nil {
			return err
		}
		pending = p
		span.SetAttributes(attribute.String("payment.id", p.PaymentID))

		open, err := s.reconciliations.HasUnresolved(ctx, p.PaymentID)
		if err != nil {
			return err
		}
		if open {
			return fmt.Errorf("payment %s awaits reconciliation: %w", p.PaymentID, models.ErrPaymentAlreadyExecuted)
		}

		basket, err := s.baskets.GetByID(ctx, basketID)
		if err != nil {
			return err
		}
		if basket.IsEmpty() {
			return models.ErrBasketEmpty
		}

		holders, err := form.HoldersFor(basket)
		if err != nil {
			return err
		}

		if _, err := s.gateway.ExecutePayment(ctx, p.PaymentID, form.PayPal.PayerID); err != nil {
			return err
		}
		captured = true

		order, err = s.fulfil(ctx, basket, p, holders, form.PaymentMethod)
		return err
	})
	if err != nil {
		if captured {
			return nil, s.reconcile(ctx, basketID, pending.PaymentID, err)
		}
		return nil, err
	}

	logging.FromContext(ctx).WithFields(logrus.Fields{
		"basket_id":    basketID,
		"payment_id":   order.PaymentID,
		"order_number": order.OrderNumber,
		"tickets":      len(order.Tickets()),
	}).Info("Purchase completed")

	return order, nil
}

func (s *PurchaseService) fulfil(
	ctx context.Context,
	basket *models.Basket,
	payment *models.PendingPayment,
	holders map[int]models.TicketInfo,
	method models.PaymentMethod,
) (*models.Order, error) {
	positions := make([]models.OrderPosition, 0, len(basket.Items))
	for _, item := range basket.Items {
		if err := s.inventory.Decrement(ctx, item.TicketSetID, item.Quantity); err != nil {
			return nil, err
		}

		holder := holders[item.TicketSetID]
		ticket := &models.Ticket{
			Code:      uuid.NewString(),
			FirstName: strings.TrimSpace(holder.FirstName),
			LastName:  strings.TrimSpace(holder.LastName),
		}
		positions = append(positions, models.NewOrderPosition(item, ticket))

		logging.FromContext(ctx).WithFields(logrus.Fields{
			"ticket_set_id": item.TicketSetID,
			"holder":        ticket.HolderName(),
		}).Debug("Ticket issued")
	}

	now := s.now().UTC()
	order := &models.Order{
		OrderNumber:   models.GenerateOrderNumber(now),
		BuyerID:       basket.BuyerID,
		PaymentMethod: method,
		PaymentID:     payment.PaymentID,
		TotalAmount:   basket.TotalPrice(),
		Currency:      s.settings.Currency,
		OrderedAt:     now,
		Positions:     positions,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	if err := s.baskets.Clear(ctx, basket.ID); err != nil {
		return nil, err
	}

	if err := s.ledger.Remove(ctx, basket.ID); err != nil {
		return nil, err
	}

	return order, nil
}

// reconcile records a payment that was captured while its order was not
// written. The pending payment stays; a retry is refused as already executed
// until an operator resolves the record.
func (s *PurchaseService) reconcile(ctx context.Context, basketID int, paymentID string, cause error) error {
	ferr := &models.FulfilmentError{BasketID: basketID, PaymentID: paymentID, Err: cause}

	log := logging.FromContext(ctx).WithFields(logrus.Fields{
		"basket_id":  basketID,
		"payment_id": paymentID,
	})
	log.WithError(cause).Error("Payment captured but order could not be written")

	s.metrics.Reconciliations.Inc()

	rec := &models.Reconciliation{BasketID: basketID, PaymentID: paymentID, Reason: cause.Error()}
	if err := s.reconciliations.Create(context.WithoutCancel(ctx), rec); err != nil {
		log.WithError(err).Error("Failed to record reconciliation")
	}

	return ferr
}

func purchaseOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, models.ErrPostCapture):
		return metrics.OutcomeReconciliation
	case errors.Is(err, models.ErrNoPayment):
		return metrics.OutcomeNoPayment
	case errors.Is(err, models.ErrPaymentAlreadyExecuted):
		return metrics.OutcomeAlreadyPaid
	case errors.Is(err, models.ErrPaymentGateway):
		return metrics.OutcomeGatewayError
	default:
		return metrics.OutcomeRejected
	}
}
