package services

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"ticket-checkout/internal/metrics"
)

const tracerName = "ticket-checkout/internal/services"

type options struct {
	now     func() time.Time
	tracer  trace.Tracer
	metrics *metrics.CheckoutMetrics
}

// Option configures the checkout services
type Option func(*options)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithTracer sets the tracer used for checkout spans
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) { o.tracer = tracer }
}

// WithMetrics sets the checkout counters
func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNopCheckoutMetrics()
	}
	return o
}
