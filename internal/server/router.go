// Package server assembles the HTTP router for the checkout API.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"ticket-checkout/internal/handlers"
	"ticket-checkout/internal/metrics"
	"ticket-checkout/internal/middleware"
	"ticket-checkout/internal/services"
)

// Dependencies are the services and infrastructure the router serves
type Dependencies struct {
	Logger         logrus.FieldLogger
	Sessions       *middleware.SessionMiddleware
	RateLimiter    *middleware.RateLimiter
	ServerMetrics  *metrics.ServerMetrics
	Gatherer       prometheus.Gatherer
	DB             handlers.Pinger
	AllowedOrigins []string
	RequestTimeout time.Duration

	Buyers     services.BuyerServiceInterface
	TicketSets services.TicketSetServiceInterface
	Events     services.EventServiceInterface
	Baskets    services.BasketServiceInterface
	Checkout   services.CheckoutServiceInterface
	Purchase   services.PurchaseServiceInterface
	Orders     services.OrderServiceInterface
}

// NewRouter builds the chi router with every API route mounted
func NewRouter(deps Dependencies) http.Handler {
	if deps.RequestTimeout == 0 {
		deps.RequestTimeout = 60 * time.Second
	}

	buyerHandler := handlers.NewBuyerHandler(deps.Buyers, deps.Sessions)
	ticketSetHandler := handlers.NewTicketSetHandler(deps.TicketSets)
	eventHandler := handlers.NewEventHandler(deps.Events)
	basketHandler := handlers.NewBasketHandler(deps.Baskets)
	checkoutHandler := handlers.NewCheckoutHandler(deps.Baskets, deps.Checkout, deps.Purchase)
	orderHandler := handlers.NewOrderHandler(deps.Orders)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware(deps.Logger))
	r.Use(middleware.ErrorHandlingMiddleware)
	r.Use(middleware.MetricsMiddleware(deps.ServerMetrics))
	r.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig(deps.AllowedOrigins)))
	r.Use(middleware.SecurityHeadersMiddleware)
	r.Use(chimiddleware.Timeout(deps.RequestTimeout))

	r.NotFound(middleware.NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", healthHandler.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	r.Route("/api", func(r chi.Router) {
		r.Use(deps.Sessions.LoadBuyer)

		r.Get("/ticket-sets", ticketSetHandler.List)
		r.Get("/ticket-sets/{id}", ticketSetHandler.Get)
		r.Get("/events", eventHandler.List)
		r.Get("/events/{id}", eventHandler.Get)

		r.Post("/buyers", buyerHandler.Create)
		r.With(middleware.RequireSession).Get("/buyers/me", buyerHandler.Me)

		r.Route("/buyers/{buyerID}", func(r chi.Router) {
			r.Use(middleware.RequireBuyer)

			r.Route("/basket", func(r chi.Router) {
				r.Get("/", basketHandler.Get)
				r.Delete("/", basketHandler.Clear)
				r.Post("/items", basketHandler.AddItem)
				r.Put("/items/{itemID}", basketHandler.UpdateItem)
				r.Delete("/items/{itemID}", basketHandler.RemoveItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Use(middleware.RateLimit(deps.RateLimiter))
				r.Post("/paypal/init", checkoutHandler.InitPayPal)
				r.Post("/purchase", checkoutHandler.Purchase)
			})

			r.Get("/orders", orderHandler.List)
			r.Get("/orders/{orderID}", orderHandler.Get)
		})
	})

	return r
}
