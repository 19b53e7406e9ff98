package services

import (
	"context"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ticket-checkout/internal/logging"
	"ticket-checkout/internal/metrics"
	"ticket-checkout/internal/models"
)

// CheckoutSettings are the merchant-side values sent with every payment
type CheckoutSettings struct {
	Currency    string
	Description string
}

// InitiatedCheckout is returned to the buyer to approve the payment
type InitiatedCheckout struct {
	PaymentID   string `json:"paymentId"`
	ApprovalURL string `json:"approvalUrl"`
}

// CheckoutService starts a payment for a basket and records it in the
// pending payment ledger.
type CheckoutService struct {
	tx       Transactor
	baskets  BasketRepository
	ledger   *PaymentLedger
	gateway  PaymentGateway
	settings CheckoutSettings
	tracer   trace.Tracer
	metrics  *metrics.CheckoutMetrics
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	tx Transactor,
	baskets BasketRepository,
	ledger *PaymentLedger,
	gateway PaymentGateway,
	settings CheckoutSettings,
	opts ...Option,
) *CheckoutService {
	o := buildOptions(opts)
	return &CheckoutService{
		tx:       tx,
		baskets:  baskets,
		ledger:   ledger,
		gateway:  gateway,
		settings: settings,
		tracer:   o.tracer,
		metrics:  o.metrics,
	}
}

// Initiate creates a gateway payment for the basket's current contents.
// An earlier pending payment for the basket is replaced. The pending payment
// is only recorded if the basket, locked, still holds what was sent to the
// gateway.
func (s *CheckoutService) Initiate(ctx context.Context, basketID int, returnURL, cancelURL string) (_ *InitiatedCheckout, err error) {
	ctx, span := s.tracer.Start(ctx, "checkout.initiate", trace.WithAttributes(
		attribute.Int("basket.id", basketID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	log := logging.FromContext(ctx).WithField("basket_id", basketID)

	if err := models.ValidateRedirectURL("returnUrl", returnURL); err != nil {
		return nil, err
	}
	if err := models.ValidateRedirectURL("cancelUrl", cancelURL); err != nil {
		return nil, err
	}

	basket, err := s.baskets.GetByID(ctx, basketID)
	if err != nil {
		return nil, err
	}
	if basket.IsEmpty() {
		return nil, models.ErrBasketEmpty
	}

	payment, err := s.gateway.InitiatePayment(ctx, s.paymentRequest(basket, returnURL, cancelURL))
	if err != nil {
		log.WithError(err).Warn("Failed to initiate payment")
		return nil, err
	}

	span.SetAttributes(attribute.String("payment.id", payment.ID))

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.baskets.GetByIDForUpdate(ctx, basketID)
		if err != nil {
			return err
		}
		if !current.SameContents(basket) {
			return models.NewValidationError("basket", "basket changed during checkout, initiate the payment again")
		}

		_, err = s.ledger.Put(ctx, basketID, payment.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.CheckoutsInitiated.Inc()
	log.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"amount":     basket.TotalPrice(),
		"tickets":    basket.TotalQuantity(),
	}).Info("Payment initiated")

	return &InitiatedCheckout{PaymentID: payment.ID, ApprovalURL: payment.ApprovalURL}, nil
}

func (s *CheckoutService) paymentRequest(basket *models.Basket, returnURL, cancelURL string) *PaymentRequest {
	return &PaymentRequest{
		Amount:      basket.TotalPrice(),
		Currency:    s.settings.Currency,
		Description: s.settings.Description,
		Items: lo.Map(basket.Items, func(item models.BasketItem, _ int) PaymentItem {
			return PaymentItem{
				Title:     item.Title,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			}
		}),
		ReturnURL: returnURL,
		CancelURL: cancelURL,
	}
}
