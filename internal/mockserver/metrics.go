package mockserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the server's prometheus instruments on a private
// registry so multiple servers (tests) never collide.
type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	m := &metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mockserver",
			Name:      "requests_total",
			Help:      "GraphQL requests handled, by tenant, operation and outcome.",
		}, []string{"tenant", "operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mockserver",
			Name:      "simulated_latency_seconds",
			Help:      "Simulated latency injected before responding.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tenant"}),
	}
	reg.MustRegister(m.requests, m.latency)
	return m
}

func (m *metrics) observe(tenantID, operation string, outcome Outcome) {
	label := "success"
	if outcome.Status != http.StatusOK {
		label = "error"
	}
	m.requests.WithLabelValues(tenantID, operation, label).Inc()
	m.latency.WithLabelValues(tenantID).Observe(outcome.Latency.Seconds())
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
