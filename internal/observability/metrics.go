package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the orchestrator. One instance
// should be constructed per process and shared across agent loop runs.
type Metrics struct {
	ProviderRequestDuration *prometheus.HistogramVec
	ProviderRequestCounter  *prometheus.CounterVec
	ProviderTokensEstimated *prometheus.CounterVec

	ToolExecutionCounter  *prometheus.CounterVec
	ToolExecutionDuration *prometheus.HistogramVec

	SessionQueryDuration *prometheus.HistogramVec
	SessionQueryCounter  *prometheus.CounterVec

	ActiveRuns    prometheus.Gauge
	RunCounter    *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
	IterationsPerRun prometheus.Histogram

	ErrorCounter *prometheus.CounterVec
}

// NewMetrics registers and returns a Metrics collector set. Registering the
// same collector names twice against the same registerer panics, so callers
// should construct exactly one Metrics per process (or pass a fresh
// registry in tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ProviderRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentcore_provider_request_duration_seconds",
			Help:    "Duration of a full streamed provider call.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "model", "status"}),

		ProviderRequestCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_provider_requests_total",
			Help: "Total provider streaming calls.",
		}, []string{"provider", "model", "status"}),

		ProviderTokensEstimated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_provider_tokens_estimated_total",
			Help: "Estimated tokens exchanged with a provider (char/4 heuristic).",
		}, []string{"provider", "direction"}),

		ToolExecutionCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_tool_executions_total",
			Help: "Total tool dispatch outcomes.",
		}, []string{"tool", "outcome"}),

		ToolExecutionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentcore_tool_execution_duration_seconds",
			Help:    "Duration of a single tool dispatch.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),

		SessionQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentcore_session_store_query_duration_seconds",
			Help:    "Duration of session store operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),

		SessionQueryCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_session_store_queries_total",
			Help: "Total session store operations by outcome.",
		}, []string{"operation", "outcome"}),

		ActiveRuns: factory.NewGauge(prometheus.GaugeOpts{
			Name: "agentcore_active_runs",
			Help: "Number of agent loop runs currently in progress.",
		}),

		RunCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_runs_total",
			Help: "Total agent loop runs by terminal outcome.",
		}, []string{"outcome"}),

		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentcore_run_duration_seconds",
			Help:    "Wall-clock duration of a full agent loop run.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"outcome"}),

		IterationsPerRun: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentcore_run_iterations",
			Help:    "Number of loop iterations consumed by a run.",
			Buckets: prometheus.LinearBuckets(1, 2, 16),
		}),

		ErrorCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_errors_total",
			Help: "Total errors by originating component.",
		}, []string{"component"}),
	}
}

// RecordProviderCall observes the outcome of one streamed provider call.
func (m *Metrics) RecordProviderCall(provider, model, status string, d time.Duration) {
	m.ProviderRequestDuration.WithLabelValues(provider, model, status).Observe(d.Seconds())
	m.ProviderRequestCounter.WithLabelValues(provider, model, status).Inc()
}

// RecordProviderTokens adds to the estimated token count for a direction
// ("prompt" or "completion").
func (m *Metrics) RecordProviderTokens(provider, direction string, n int) {
	m.ProviderTokensEstimated.WithLabelValues(provider, direction).Add(float64(n))
}

// RecordToolExecution observes one tool dispatch outcome
// ("success", "failure", or "unknown_tool").
func (m *Metrics) RecordToolExecution(tool, outcome string, d time.Duration) {
	m.ToolExecutionCounter.WithLabelValues(tool, outcome).Inc()
	m.ToolExecutionDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// RecordSessionQuery observes one session store operation.
func (m *Metrics) RecordSessionQuery(operation, outcome string, d time.Duration) {
	m.SessionQueryDuration.WithLabelValues(operation).Observe(d.Seconds())
	m.SessionQueryCounter.WithLabelValues(operation, outcome).Inc()
}

// RunStarted increments the active run gauge. Callers must pair every call
// with a RunFinished call.
func (m *Metrics) RunStarted() {
	m.ActiveRuns.Inc()
}

// RunFinished decrements the active run gauge and records the terminal
// outcome ("completed", "error", "cancelled", "iteration_cap").
func (m *Metrics) RunFinished(outcome string, d time.Duration, iterations int) {
	m.ActiveRuns.Dec()
	m.RunCounter.WithLabelValues(outcome).Inc()
	m.RunDuration.WithLabelValues(outcome).Observe(d.Seconds())
	m.IterationsPerRun.Observe(float64(iterations))
}

// RecordError increments the error counter for the given component name.
func (m *Metrics) RecordError(component string) {
	m.ErrorCounter.WithLabelValues(component).Inc()
}
