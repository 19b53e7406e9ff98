package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"ticket-checkout/internal/metrics"
	"ticket-checkout/internal/models"
)

// MockGateway is a testify mock of PaymentGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) InitiatePayment(ctx context.Context, req *PaymentRequest) (*InitiatedPayment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*InitiatedPayment), args.Error(1)
}

func (m *MockGateway) ExecutePayment(ctx context.Context, paymentID, payerID string) (*CapturedPayment, error) {
	args := m.Called(ctx, paymentID, payerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CapturedPayment), args.Error(1)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store    *memStore
	clock    *testClock
	spans    *tracetest.SpanRecorder
	metrics  *metrics.CheckoutMetrics
	ledger   *PaymentLedger
	baskets  *BasketService
	checkout *CheckoutService
	purchase *PurchaseService
	buyerID  uuid.UUID
}

var testSettings = CheckoutSettings{Currency: "EUR", Description: "Thank you for purchasing tickets!"}

func newFixture(t *testing.T, gateway PaymentGateway) *fixture {
	t.Helper()

	store := newMemStore()
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	m := metrics.NewNopCheckoutMetrics()

	opts := []Option{WithClock(clock.Now), WithTracer(tp.Tracer("test")), WithMetrics(m)}

	ticketSets := memTicketSets{store}
	baskets := memBaskets{store}
	inventory := NewInventoryGuard(ticketSets)
	ledger := NewPaymentLedger(memPending{store}, DefaultPendingPaymentTTL, opts...)

	return &fixture{
		store:    store,
		clock:    clock,
		spans:    spans,
		metrics:  m,
		ledger:   ledger,
		baskets:  NewBasketService(store, baskets, ticketSets, inventory, ledger),
		checkout: NewCheckoutService(store, baskets, ledger, gateway, testSettings, opts...),
		purchase: NewPurchaseService(store, baskets, memOrders{store}, memReconciliations{store}, inventory, ledger, gateway, testSettings, opts...),
		buyerID:  uuid.New(),
	}
}

func (f *fixture) newBasket(t *testing.T) *models.Basket {
	t.Helper()

	basket, err := f.baskets.GetBasket(context.Background(), f.buyerID)
	require.NoError(t, err)
	return basket
}

func (f *fixture) addItem(t *testing.T, basketID, ticketSetID, quantity int) *models.Basket {
	t.Helper()

	basket, err := f.baskets.AddItem(context.Background(), basketID, ticketSetID, quantity)
	require.NoError(t, err)
	return basket
}

func purchaseForm(payerID string, infos ...models.TicketInfo) *models.PurchaseForm {
	return &models.PurchaseForm{
		TicketInfos:   infos,
		PaymentMethod: models.PaymentMethodPayPal,
		PayPal:        &models.PayPalPaymentInfo{PayerID: payerID},
	}
}

func holder(ticketSetID int, first, last string) models.TicketInfo {
	return models.TicketInfo{TicketSetID: ticketSetID, FirstName: first, LastName: last}
}
