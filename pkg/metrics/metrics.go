// Package metrics provides Prometheus metrics for the DPE matching service
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Manager owns every collector. A nil *Manager is valid and records nothing
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	strategyRequests   *prometheus.CounterVec
	strategyLatency    *prometheus.HistogramVec
	candidatesAcquired prometheus.Counter
	duplicatesDropped  prometheus.Counter

	classifications   *prometheus.CounterVec
	disqualifications *prometheus.CounterVec

	proximityRanked   prometheus.Counter
	proximityExcluded prometheus.Counter

	toolCalls *prometheus.CounterVec
}

// NewManager creates a manager on its own registry unless one is supplied
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dpe",
		subsystem:        "matching",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.strategyRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "strategy_requests_total",
		Help:      "Upstream search requests issued per acquisition strategy, by outcome",
	}, []string{"strategy", "outcome"})

	m.strategyLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "strategy_duration_seconds",
		Help:      "Upstream search latency per acquisition strategy",
		Buckets:   m.histogramBuckets,
	}, []string{"strategy"})

	m.candidatesAcquired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_acquired_total",
		Help:      "Deduplicated certificate candidates handed to ranking",
	})

	m.duplicatesDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_duplicate_total",
		Help:      "Candidates dropped because another strategy already returned the same certificate",
	})

	m.classifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "classifications_total",
		Help:      "Classification calls by status (exact_match, candidates_only, no_candidates, error)",
	}, []string{"status"})

	m.disqualifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "disqualifications_total",
		Help:      "Candidates zeroed by a hard gate, by rule",
	}, []string{"rule"})

	m.proximityRanked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "proximity_ranked_total",
		Help:      "Records ranked by distance",
	})

	m.proximityExcluded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "proximity_excluded_total",
		Help:      "Records excluded from proximity ranking for lack of coordinates",
	})

	m.toolCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "mcp",
		Name:      "tool_calls_total",
		Help:      "MCP tool invocations by tool and outcome",
	}, []string{"tool", "outcome"})
}

// Registry exposes the underlying registry for tests and custom exporters
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordStrategy records one settled acquisition strategy
func (m *Manager) RecordStrategy(strategy string, failed bool, took time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if failed {
		outcome = OutcomeFailure
	}
	m.strategyRequests.WithLabelValues(strategy, outcome).Inc()
	m.strategyLatency.WithLabelValues(strategy).Observe(took.Seconds())
}

// RecordPool records the size of a merged candidate pool
func (m *Manager) RecordPool(candidates, duplicates int) {
	if m == nil {
		return
	}
	m.candidatesAcquired.Add(float64(candidates))
	m.duplicatesDropped.Add(float64(duplicates))
}

// RecordClassification records a classification status and per-rule disqualifications
func (m *Manager) RecordClassification(status string, disqualifiedBy map[string]int) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(status).Inc()
	for rule, n := range disqualifiedBy {
		m.disqualifications.WithLabelValues(rule).Add(float64(n))
	}
}

// RecordProximity records one proximity ranking
func (m *Manager) RecordProximity(ranked, excluded int) {
	if m == nil {
		return
	}
	m.proximityRanked.Add(float64(ranked))
	m.proximityExcluded.Add(float64(excluded))
}

// RecordToolCall records one MCP tool invocation
func (m *Manager) RecordToolCall(tool string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}
