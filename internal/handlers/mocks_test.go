package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticket-checkout/internal/middleware"
	"ticket-checkout/internal/models"
	"ticket-checkout/internal/services"
)

// MockBasketService for testing
type MockBasketService struct {
	mock.Mock
}

func (m *MockBasketService) GetBasket(ctx context.Context, buyerID uuid.UUID) (*models.Basket, error) {
	args := m.Called(ctx, buyerID)
	basket, _ := args.Get(0).(*models.Basket)
	return basket, args.Error(1)
}

func (m *MockBasketService) AddItem(ctx context.Context, basketID, ticketSetID, quantity int) (*models.Basket, error) {
	args := m.Called(ctx, basketID, ticketSetID, quantity)
	basket, _ := args.Get(0).(*models.Basket)
	return basket, args.Error(1)
}

func (m *MockBasketService) UpdateItemQuantity(ctx context.Context, basketID, itemID, quantity int) (*models.Basket, error) {
	args := m.Called(ctx, basketID, itemID, quantity)
	basket, _ := args.Get(0).(*models.Basket)
	return basket, args.Error(1)
}

func (m *MockBasketService) RemoveItem(ctx context.Context, basketID, itemID int) (*models.Basket, error) {
	args := m.Called(ctx, basketID, itemID)
	basket, _ := args.Get(0).(*models.Basket)
	return basket, args.Error(1)
}

func (m *MockBasketService) Clear(ctx context.Context, basketID int) (*models.Basket, error) {
	args := m.Called(ctx, basketID)
	basket, _ := args.Get(0).(*models.Basket)
	return basket, args.Error(1)
}

// MockCheckoutService for testing
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Initiate(ctx context.Context, basketID int, returnURL, cancelURL string) (*services.InitiatedCheckout, error) {
	args := m.Called(ctx, basketID, returnURL, cancelURL)
	initiated, _ := args.Get(0).(*services.InitiatedCheckout)
	return initiated, args.Error(1)
}

// MockPurchaseService for testing
type MockPurchaseService struct {
	mock.Mock
}

func (m *MockPurchaseService) Purchase(ctx context.Context, basketID int, form *models.PurchaseForm) (*models.Order, error) {
	args := m.Called(ctx, basketID, form)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

// MockOrderService for testing
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) GetBuyerOrders(ctx context.Context, buyerID uuid.UUID) ([]*models.Order, error) {
	args := m.Called(ctx, buyerID)
	orders, _ := args.Get(0).([]*models.Order)
	return orders, args.Error(1)
}

func (m *MockOrderService) GetOrderByID(ctx context.Context, orderID int, buyerID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orderID, buyerID)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

// MockTicketSetService for testing
type MockTicketSetService struct {
	mock.Mock
}

func (m *MockTicketSetService) ListTicketSets(ctx context.Context) ([]*models.TicketSet, error) {
	args := m.Called(ctx)
	sets, _ := args.Get(0).([]*models.TicketSet)
	return sets, args.Error(1)
}

func (m *MockTicketSetService) GetTicketSet(ctx context.Context, id int) (*models.TicketSet, error) {
	args := m.Called(ctx, id)
	set, _ := args.Get(0).(*models.TicketSet)
	return set, args.Error(1)
}

// MockEventService for testing
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) ListEvents(ctx context.Context) ([]*services.EventView, error) {
	args := m.Called(ctx)
	events, _ := args.Get(0).([]*services.EventView)
	return events, args.Error(1)
}

func (m *MockEventService) GetEvent(ctx context.Context, id int) (*services.EventView, error) {
	args := m.Called(ctx, id)
	event, _ := args.Get(0).(*services.EventView)
	return event, args.Error(1)
}

// MockBuyerService for testing
type MockBuyerService struct {
	mock.Mock
}

func (m *MockBuyerService) Register(ctx context.Context) (*models.Buyer, error) {
	args := m.Called(ctx)
	buyer, _ := args.Get(0).(*models.Buyer)
	return buyer, args.Error(1)
}

func (m *MockBuyerService) GetBuyer(ctx context.Context, id uuid.UUID) (*models.Buyer, error) {
	args := m.Called(ctx, id)
	buyer, _ := args.Get(0).(*models.Buyer)
	return buyer, args.Error(1)
}

// MockPinger for testing
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) PingContext(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// serve runs handler behind a chi route with the buyer already in the context
func serve(t *testing.T, buyerID uuid.UUID, method, pattern, path string, body string, handler http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.MethodFunc(method, pattern, handler)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req = req.WithContext(middleware.WithBuyerID(req.Context(), buyerID))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) middleware.ErrorResponse {
	t.Helper()

	var body middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}
