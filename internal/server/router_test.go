package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-checkout/internal/metrics"
	"ticket-checkout/internal/middleware"
	"ticket-checkout/internal/models"
	"ticket-checkout/internal/services"
)

type stubBuyers struct{ id uuid.UUID }

func (s stubBuyers) Register(context.Context) (*models.Buyer, error) {
	return &models.Buyer{ID: s.id}, nil
}

func (s stubBuyers) GetBuyer(_ context.Context, id uuid.UUID) (*models.Buyer, error) {
	return &models.Buyer{ID: id}, nil
}

type stubTicketSets struct{}

func (stubTicketSets) ListTicketSets(context.Context) ([]*models.TicketSet, error) {
	return []*models.TicketSet{{ID: 1, Title: "General Admission", Price: 2500, Stock: 100}}, nil
}

func (stubTicketSets) GetTicketSet(_ context.Context, id int) (*models.TicketSet, error) {
	return nil, &models.NotFoundError{Resource: "ticket set", ID: id}
}

type stubEvents struct{}

func (stubEvents) ListEvents(context.Context) ([]*services.EventView, error) {
	return []*services.EventView{{Event: &models.Event{ID: 1, Title: "Open Air", TicketSets: []*models.TicketSet{}}}}, nil
}

func (stubEvents) GetEvent(_ context.Context, id int) (*services.EventView, error) {
	return nil, &models.NotFoundError{Resource: "event", ID: id}
}

type stubBaskets struct{}

func (stubBaskets) GetBasket(_ context.Context, buyerID uuid.UUID) (*models.Basket, error) {
	return &models.Basket{ID: 1, BuyerID: buyerID}, nil
}

func (stubBaskets) AddItem(context.Context, int, int, int) (*models.Basket, error) {
	return &models.Basket{ID: 1}, nil
}

func (stubBaskets) UpdateItemQuantity(context.Context, int, int, int) (*models.Basket, error) {
	return &models.Basket{ID: 1}, nil
}

func (stubBaskets) RemoveItem(context.Context, int, int) (*models.Basket, error) {
	return &models.Basket{ID: 1}, nil
}

func (stubBaskets) Clear(context.Context, int) (*models.Basket, error) {
	return &models.Basket{ID: 1}, nil
}

type stubCheckout struct{}

func (stubCheckout) Initiate(context.Context, int, string, string) (*services.InitiatedCheckout, error) {
	return nil, models.ErrBasketEmpty
}

type stubPurchase struct{}

func (stubPurchase) Purchase(_ context.Context, basketID int, _ *models.PurchaseForm) (*models.Order, error) {
	return nil, models.NewNoPaymentError(basketID)
}

type stubOrders struct{}

func (stubOrders) GetBuyerOrders(context.Context, uuid.UUID) ([]*models.Order, error) {
	return nil, nil
}

func (stubOrders) GetOrderByID(_ context.Context, orderID int, _ uuid.UUID) (*models.Order, error) {
	return nil, &models.NotFoundError{Resource: "order", ID: orderID}
}

type stubDB struct{}

func (stubDB) PingContext(context.Context) error { return nil }

func newTestRouter(t *testing.T, buyerID uuid.UUID, limit int) (http.Handler, *prometheus.Registry) {
	t.Helper()

	logger, _ := test.NewNullLogger()
	reg := prometheus.NewRegistry()

	return NewRouter(Dependencies{
		Logger:         logger,
		Sessions:       middleware.NewSessionMiddleware(middleware.NewCookieStore("router-test-secret-router-test-se", 3600, false)),
		RateLimiter:    middleware.NewRateLimiter(limit, time.Minute),
		ServerMetrics:  metrics.NewServerMetrics(reg),
		Gatherer:       reg,
		DB:             stubDB{},
		AllowedOrigins: []string{"https://shop.example.com"},

		Buyers:     stubBuyers{id: buyerID},
		TicketSets: stubTicketSets{},
		Events:     stubEvents{},
		Baskets:    stubBaskets{},
		Checkout:   stubCheckout{},
		Purchase:   stubPurchase{},
		Orders:     stubOrders{},
	}), reg
}

func do(router http.Handler, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func register(t *testing.T, router http.Handler) *http.Cookie {
	t.Helper()

	rr := do(router, http.MethodPost, "/api/buyers", "", nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.SessionName {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func TestRouter_BuyerScopedRoutes(t *testing.T) {
	buyerID := uuid.New()
	router, _ := newTestRouter(t, buyerID, 10)
	cookie := register(t, router)

	own := "/api/buyers/" + buyerID.String()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		cookie *http.Cookie
		status int
	}{
		{"me", http.MethodGet, "/api/buyers/me", "", cookie, http.StatusOK},
		{"me without session", http.MethodGet, "/api/buyers/me", "", nil, http.StatusUnauthorized},
		{"own basket", http.MethodGet, own + "/basket", "", cookie, http.StatusOK},
		{"other basket", http.MethodGet, "/api/buyers/" + uuid.NewString() + "/basket", "", cookie, http.StatusForbidden},
		{"basket without session", http.MethodGet, own + "/basket", "", nil, http.StatusUnauthorized},
		{"add item", http.MethodPost, own + "/basket/items", `{"ticketSetId":1,"quantity":1}`, cookie, http.StatusCreated},
		{"clear basket", http.MethodDelete, own + "/basket", "", cookie, http.StatusOK},
		{"init on empty basket", http.MethodPost, own + "/checkout/paypal/init",
			`{"returnUrl":"https://shop.example.com/r","cancelUrl":"https://shop.example.com/c"}`, cookie, http.StatusBadRequest},
		{"orders", http.MethodGet, own + "/orders", "", cookie, http.StatusOK},
		{"missing order", http.MethodGet, own + "/orders/3", "", cookie, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(router, tt.method, tt.path, tt.body, tt.cookie)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}

func TestRouter_PublicRoutes(t *testing.T) {
	router, reg := newTestRouter(t, uuid.New(), 10)

	rr := do(router, http.MethodGet, "/api/ticket-sets", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "General Admission")
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))

	rr = do(router, http.MethodGet, "/api/ticket-sets/9", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(router, http.MethodGet, "/api/events", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Open Air")

	rr = do(router, http.MethodGet, "/api/events/4", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(router, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), `"NOT_FOUND"`)

	rr = do(router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `route="/api/ticket-sets"`)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRouter_CheckoutIsRateLimited(t *testing.T) {
	buyerID := uuid.New()
	router, _ := newTestRouter(t, buyerID, 2)
	cookie := register(t, router)

	path := "/api/buyers/" + buyerID.String() + "/checkout/purchase"
	body := `{"ticketInfos":[{"ticketSetId":1,"firstName":"Ada","lastName":"Lovelace"}],"paymentMethod":"paypal","paypal":{"payerId":"P"}}`

	var codes []int
	for i := 0; i < 3; i++ {
		codes = append(codes, do(router, http.MethodPost, path, body, cookie).Code)
	}

	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)

	rr := do(router, http.MethodGet, "/api/buyers/"+buyerID.String()+"/basket", "", cookie)
	assert.Equal(t, http.StatusOK, rr.Code, "basket routes are not rate limited")
}
