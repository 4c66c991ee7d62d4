// Package metrics exposes gateway and backend call metrics in the
// Prometheus text format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "booknest"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	backendCalls    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	sessionsPurged  prometheus.Counter
}

// New builds a private registry so tests can create as many instances as
// they need.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Gateway HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Gateway HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "calls_total",
			Help:      "Calls to the BookNest REST service by method, route and status (0 means no response).",
		}, []string{"method", "route", "status"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "call_duration_seconds",
			Help:      "Latency of calls to the BookNest REST service.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "purged_total",
			Help:      "Expired sessions removed by the janitor.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.backendCalls,
		m.backendDuration,
		m.sessionsPurged,
	)

	return m
}

// ObserveBackendCall satisfies backend.Observer.
func (m *Metrics) ObserveBackendCall(method string, route string, status int, d time.Duration) {
	m.backendCalls.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.backendDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ObserveRequest(method string, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) SessionsPurged(n int64) {
	if n > 0 {
		m.sessionsPurged.Add(float64(n))
	}
}

// Gauge registers a value read at scrape time, such as live workspaces.
func (m *Metrics) Gauge(subsystem string, name string, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, fn))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
