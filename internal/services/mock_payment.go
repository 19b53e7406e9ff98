package services

import (
	"context"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ticket-checkout/internal/config"
	"ticket-checkout/internal/logging"
	"ticket-checkout/internal/models"
)

// MockPayerID is the payer id the mock gateway puts on its approval links
const MockPayerID = "MOCK-PAYER"

// MockPaymentService is an in-memory gateway for development. Approval
// links point straight back at the return URL with the payment already
// approved.
type MockPaymentService struct {
	mu       sync.Mutex
	payments map[string]*mockPayment
}

type mockPayment struct {
	request  PaymentRequest
	executed bool
}

// NewMockPaymentService creates a new mock payment service
func NewMockPaymentService() *MockPaymentService {
	return &MockPaymentService{payments: make(map[string]*mockPayment)}
}

// NewPaymentGateway returns the PayPal gateway when credentials are
// configured and the mock otherwise
func NewPaymentGateway(cfg config.PayPalConfig) PaymentGateway {
	if cfg.Configured() {
		logrus.WithField("mode", cfg.Mode).Info("Payment gateway: using PayPal API")
		return NewPayPalService(cfg)
	}

	logrus.Warn("Payment gateway: using mock (no PayPal credentials provided)")
	return NewMockPaymentService()
}

// InitiatePayment records the payment and returns an approval link
func (s *MockPaymentService) InitiatePayment(ctx context.Context, req *PaymentRequest) (*InitiatedPayment, error) {
	returnURL, err := url.Parse(req.ReturnURL)
	if err != nil {
		return nil, &models.PaymentGatewayError{Op: "create_payment", Message: "invalid return url", Err: err}
	}

	id := "PAY-MOCK-" + uuid.NewString()

	s.mu.Lock()
	s.payments[id] = &mockPayment{request: *req}
	s.mu.Unlock()

	q := returnURL.Query()
	q.Set("paymentId", id)
	q.Set("PayerID", MockPayerID)
	returnURL.RawQuery = q.Encode()

	logging.FromContext(ctx).WithFields(logrus.Fields{
		"payment_id": id,
		"amount":     req.Amount,
		"currency":   req.Currency,
	}).Info("Mock payment created")

	return &InitiatedPayment{ID: id, ApprovalURL: returnURL.String()}, nil
}

// ExecutePayment captures a payment exactly once
func (s *MockPaymentService) ExecutePayment(ctx context.Context, paymentID, payerID string) (*CapturedPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[paymentID]
	if !ok {
		return nil, &models.PaymentGatewayError{Op: "execute_payment", StatusCode: 404, Name: "INVALID_RESOURCE_ID", Message: "payment not found"}
	}

	if p.executed {
		return nil, &models.PaymentGatewayError{
			Op:         "execute_payment",
			StatusCode: 400,
			Name:       payPalAlreadyDone,
			Message:    "payment has already been done",
			Err:        models.ErrPaymentAlreadyExecuted,
		}
	}

	p.executed = true
	logging.FromContext(ctx).WithField("payment_id", paymentID).Info("Mock payment executed")

	return &CapturedPayment{ID: paymentID, PayerID: payerID, State: "approved"}, nil
}
