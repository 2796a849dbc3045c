// Package metrics exposes Prometheus instrumentation for the gateway.
//
// Metrics live on their own registry so that tests and embedded uses never
// collide with the process-wide default registry.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"switchgate/internal/target"
)

// Metrics holds every collector the gateway updates.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	upstreamErrors  *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry. The flip count and the active
// backend are read from store at scrape time.
func New(store *target.Store) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "switchgate_proxy_requests_total",
			Help: "Proxied requests by backend and response status code.",
		}, []string{"backend", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "switchgate_proxy_request_duration_seconds",
			Help:    "Time from routing decision to upstream response headers.",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "switchgate_upstream_errors_total",
			Help: "Requests that failed before an upstream response was received.",
		}, []string{"backend"}),
	}

	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "switchgate_flips_total",
			Help: "Number of times the active backend was switched.",
		}, func() float64 {
			return float64(store.Flips())
		}),
		m.requestsTotal,
		m.requestDuration,
		m.upstreamErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	for _, b := range target.Backends() {
		b := b
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "switchgate_active_backend",
			Help:        "Active backend (1 = receiving proxied traffic, 0 = idle).",
			ConstLabels: prometheus.Labels{"backend": b.String()},
		}, func() float64 {
			if store.Current() == b {
				return 1
			}
			return 0
		}))
	}

	return m
}

// Registry returns the registry holding every gateway collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveResponse records an upstream response.
func (m *Metrics) ObserveResponse(b target.Backend, code int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(b.String(), strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(b.String()).Observe(elapsed.Seconds())
}

// ObserveUpstreamError records a request that never got an upstream response.
func (m *Metrics) ObserveUpstreamError(b target.Backend, code int) {
	m.upstreamErrors.WithLabelValues(b.String()).Inc()
	m.requestsTotal.WithLabelValues(b.String(), strconv.Itoa(code)).Inc()
}
