package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ticket_checkout"

// Purchase outcomes
const (
	OutcomeSuccess        = "success"
	OutcomeNoPayment      = "no_payment"
	OutcomeRejected       = "rejected"
	OutcomeAlreadyPaid    = "already_executed"
	OutcomeGatewayError   = "gateway_error"
	OutcomeReconciliation = "reconciliation"
)

type ServerMetrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

type CheckoutMetrics struct {
	CheckoutsInitiated prometheus.Counter
	Purchases          *prometheus.CounterVec
	Reconciliations    prometheus.Counter
	ExpiredPayments    prometheus.Counter
}

func NewServerMetrics(reg prometheus.Registerer) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, Latency: latency}
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	m := &CheckoutMetrics{
		CheckoutsInitiated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_initiated_total",
			Help:      "Payments initiated at the gateway.",
		}),
		Purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchases_total",
			Help:      "Purchase attempts by outcome.",
		}, []string{"outcome"}),
		Reconciliations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_total",
			Help:      "Payments captured whose order could not be written.",
		}),
		ExpiredPayments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_pending_payments_total",
			Help:      "Pending payments removed by the sweeper.",
		}),
	}

	reg.MustRegister(m.CheckoutsInitiated, m.Purchases, m.Reconciliations, m.ExpiredPayments)
	return m
}

// NewNopCheckoutMetrics returns metrics registered nowhere
func NewNopCheckoutMetrics() *CheckoutMetrics {
	return NewCheckoutMetrics(prometheus.NewRegistry())
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
