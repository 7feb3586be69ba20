package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/tariffledger/pkg/ledger"
)

// Metrics holds the Prometheus collectors of the billing service.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	TransitionsTotal    *prometheus.CounterVec
	PaymentsAmountTotal *prometheus.CounterVec
	LiveSubscriptions   prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics creates and registers the collectors on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "billing_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_transitions_total",
				Help: "Applied subscription and payment state transitions",
			},
			[]string{"entity", "event", "to"},
		),
		PaymentsAmountTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_payments_amount_minor_total",
				Help: "Captured payment volume in minor currency units",
			},
			[]string{"currency", "provider"},
		),
		LiveSubscriptions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "billing_live_subscriptions",
				Help: "Approximate number of live subscriptions, adjusted on every transition",
			},
		),
		gatherer: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.TransitionsTotal,
		m.PaymentsAmountTotal,
		m.LiveSubscriptions,
	)
	return m
}

// OnTransition implements ledger.Observer.
func (m *Metrics) OnTransition(_ context.Context, t ledger.Transition) {
	m.TransitionsTotal.WithLabelValues(string(t.Entity), t.Event, t.To).Inc()

	switch t.Entity {
	case ledger.EntitySubscription:
		wasLive := ledger.Status(t.From).IsLive()
		isLive := ledger.Status(t.To).IsLive()
		switch {
		case !wasLive && isLive:
			m.LiveSubscriptions.Inc()
		case wasLive && !isLive:
			m.LiveSubscriptions.Dec()
		}
	case ledger.EntityPayment:
		if t.Intent != nil && ledger.IntentStatus(t.To) == ledger.IntentSucceeded {
			m.PaymentsAmountTotal.WithLabelValues(t.Intent.Amount.Currency, t.Intent.Provider).
				Add(float64(t.Intent.Amount.Amount))
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware instruments requests. Routes are labelled by their chi
// pattern so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

var _ ledger.Observer = (*Metrics)(nil)
