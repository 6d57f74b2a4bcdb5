// Package metrics exposes prometheus instrumentation for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors registered for this service.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        prometheus.Gauge

	checkoutAttemptsTotal *prometheus.CounterVec
	cartMutationsTotal    *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Count of HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		}),
		checkoutAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_attempts_total",
			Help: "Checkout attempts by outcome (placed, out_of_stock, unavailable, empty_cart, error).",
		}, []string{"outcome"}),
		cartMutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Cart write operations by kind (add, set_quantity, remove).",
		}, []string{"kind"}),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpInflight,
		m.checkoutAttemptsTotal,
		m.cartMutationsTotal,
	)

	return m
}

// Handler serves the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one finished request.
func (m *Metrics) ObserveHTTPRequest(route, method string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// TrackInflight marks a request entering service; call the returned func when
// it leaves.
func (m *Metrics) TrackInflight() func() {
	m.httpInflight.Inc()
	return m.httpInflight.Dec
}

// CountCheckoutAttempt tallies a checkout by outcome.
func (m *Metrics) CountCheckoutAttempt(outcome string) {
	m.checkoutAttemptsTotal.WithLabelValues(outcome).Inc()
}

// CountCartMutation tallies a cart write by kind.
func (m *Metrics) CountCartMutation(kind string) {
	m.cartMutationsTotal.WithLabelValues(kind).Inc()
}

// Registry exposes the underlying registry, used by tests to gather samples.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
