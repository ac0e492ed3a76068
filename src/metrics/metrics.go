package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the console
type Metrics struct {
	// HTTP surface
	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec

	// Backend gateway
	BackendRequestsTotal          *prometheus.CounterVec
	BackendRequestDurationSeconds *prometheus.HistogramVec

	// Pipelines
	FeedCyclesTotal    *prometheus.CounterVec
	RosterRefreshTotal *prometheus.CounterVec
	ActiveWorkspaces   prometheus.Gauge

	// Rate limiting
	RateLimitExceededTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a Metrics instance with every metric registered on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_http_requests_total",
				Help: "Total number of console HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_http_request_duration_seconds",
				Help:    "Console HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		BackendRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_backend_requests_total",
				Help: "Total number of calls made to the user-management backend",
			},
			[]string{"operation", "outcome"},
		),
		BackendRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_backend_request_duration_seconds",
				Help:    "Backend call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		FeedCyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_history_feed_cycles_total",
				Help: "History feed fetch cycles by outcome",
			},
			[]string{"outcome"},
		),
		RosterRefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_roster_refresh_total",
				Help: "Roster refreshes by outcome",
			},
			[]string{"outcome"},
		),
		ActiveWorkspaces: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "console_active_workspaces",
				Help: "Number of signed-in operator workspaces held in memory",
			},
		),
		RateLimitExceededTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_ratelimit_exceeded_total",
				Help: "Total number of rejected rate-limited requests",
			},
			[]string{"scope"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
		m.BackendRequestsTotal,
		m.BackendRequestDurationSeconds,
		m.FeedCyclesTotal,
		m.RosterRefreshTotal,
		m.ActiveWorkspaces,
		m.RateLimitExceededTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveBackend records one backend call. Safe on a nil receiver.
func (m *Metrics) ObserveBackend(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.BackendRequestsTotal.WithLabelValues(operation, outcome).Inc()
	m.BackendRequestDurationSeconds.WithLabelValues(operation).Observe(seconds)
}

// IncFeedCycle counts a history feed cycle outcome
func (m *Metrics) IncFeedCycle(outcome string) {
	if m == nil {
		return
	}
	m.FeedCyclesTotal.WithLabelValues(outcome).Inc()
}

// IncRosterRefresh counts a roster refresh outcome
func (m *Metrics) IncRosterRefresh(outcome string) {
	if m == nil {
		return
	}
	m.RosterRefreshTotal.WithLabelValues(outcome).Inc()
}

// SetWorkspaces sets the number of live workspaces
func (m *Metrics) SetWorkspaces(n int) {
	if m == nil {
		return
	}
	m.ActiveWorkspaces.Set(float64(n))
}

// IncRateLimitExceeded counts a rejected request for scope
func (m *Metrics) IncRateLimitExceeded(scope string) {
	if m == nil {
		return
	}
	m.RateLimitExceededTotal.WithLabelValues(scope).Inc()
}
