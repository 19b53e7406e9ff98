package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"ticket-checkout/internal/config"
	"ticket-checkout/internal/database"
	"ticket-checkout/internal/logging"
	"ticket-checkout/internal/metrics"
	"ticket-checkout/internal/middleware"
	"ticket-checkout/internal/repositories"
	"ticket-checkout/internal/server"
	"ticket-checkout/internal/services"
	"ticket-checkout/internal/tracing"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("Server stopped with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(cfg.Log.Level, cfg.Log.Format)
	log := logrus.WithField("version", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, version)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.WithError(err).Warn("Failed to flush traces")
		}
	}()

	db, err := database.NewConnection(ctx, database.Config{
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	if err := db.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	serverMetrics := metrics.NewServerMetrics(reg)
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)

	// Repositories
	tx := repositories.NewTransactor(db.DB)
	ticketSetRepo := repositories.NewTicketSetRepository(db.DB)
	basketRepo := repositories.NewBasketRepository(db.DB)
	pendingRepo := repositories.NewPendingPaymentRepository(db.DB)
	orderRepo := repositories.NewOrderRepository(db.DB)
	reconciliationRepo := repositories.NewReconciliationRepository(db.DB)
	buyerRepo := repositories.NewBuyerRepository(db.DB)

	// Services
	settings := services.CheckoutSettings{
		Currency:    cfg.Checkout.Currency,
		Description: cfg.Checkout.Description,
	}
	gateway := services.NewPaymentGateway(cfg.PayPal)
	inventory := services.NewInventoryGuard(ticketSetRepo)
	ledger := services.NewPaymentLedger(pendingRepo, cfg.Checkout.PendingPaymentTTL)

	basketService := services.NewBasketService(tx, basketRepo, ticketSetRepo, inventory, ledger)
	checkoutService := services.NewCheckoutService(tx, basketRepo, ledger, gateway, settings,
		services.WithMetrics(checkoutMetrics))
	purchaseService := services.NewPurchaseService(tx, basketRepo, orderRepo, reconciliationRepo, inventory, ledger, gateway, settings,
		services.WithMetrics(checkoutMetrics))

	sweeper := services.NewPaymentSweeper(ledger, cfg.Checkout.SweepInterval, checkoutMetrics, logrus.StandardLogger())
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)

	sessionStore := middleware.NewCookieStore(cfg.Session.Secret, cfg.Session.MaxAge, !cfg.IsDevelopment())

	router := server.NewRouter(server.Dependencies{
		Logger:         logrus.StandardLogger(),
		Sessions:       middleware.NewSessionMiddleware(sessionStore),
		RateLimiter:    rateLimiter,
		ServerMetrics:  serverMetrics,
		Gatherer:       reg,
		DB:             db,
		AllowedOrigins: cfg.Server.AllowedOrigins,

		Buyers:     services.NewBuyerService(buyerRepo),
		TicketSets: services.NewTicketSetService(ticketSetRepo),
		Events:     services.NewEventService(repositories.NewEventRepository(db.DB)),
		Baskets:    basketService,
		Checkout:   checkoutService,
		Purchase:   purchaseService,
		Orders:     services.NewOrderService(orderRepo),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           otelhttp.NewHandler(router, "ticket-checkout"),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	g.Go(func() error {
		return rateLimiter.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
