package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-formprompt/pkg/merge"
)

// Proposal outcomes recorded by Metrics.
const (
	OutcomeMerged  = "merged"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
	OutcomeBusy    = "busy"
	OutcomeStale   = "superseded"
)

// Metrics holds the Prometheus collectors for one server. Each server owns its
// registry so tests can build several side by side.
type Metrics struct {
	registry  *prometheus.Registry
	proposals *prometheus.CounterVec
	added     prometheus.Counter
	discarded *prometheus.CounterVec
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

func newMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		proposals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formprompt",
			Name:      "proposals_total",
			Help:      "Prompt submissions by outcome.",
		}, []string{"outcome"}),
		added: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "formprompt",
			Name:      "fields_added_total",
			Help:      "Candidate fields merged into a form.",
		}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formprompt",
			Name:      "fields_discarded_total",
			Help:      "Candidate fields dropped during a merge.",
		}, []string{"reason"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formprompt",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "formprompt",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.proposals,
		m.added,
		m.discarded,
		m.requests,
		m.latency,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) proposal(outcome string) {
	m.proposals.WithLabelValues(outcome).Inc()
}

func (m *Metrics) merged(added int, discarded []merge.Discard) {
	m.proposals.WithLabelValues(OutcomeMerged).Inc()
	m.added.Add(float64(added))
	for _, d := range discarded {
		m.discarded.WithLabelValues(string(d.Reason)).Inc()
	}
}

func (m *Metrics) observe(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
