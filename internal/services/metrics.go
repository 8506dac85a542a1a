package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// EngineMetrics holds the Prometheus collectors for the recommendation path.
type EngineMetrics struct {
	requests    *prometheus.CounterVec
	duration    prometheus.Histogram
	candidates  prometheus.Histogram
	relaxations *prometheus.CounterVec
	filtered    prometheus.Counter
	events      *prometheus.CounterVec
}

func NewEngineMetrics(logger *logrus.Logger) *EngineMetrics {
	m := &EngineMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Recommendation requests by status and cache outcome",
		}, []string{"status", "cache"}),

		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Recommendation request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0},
		}),

		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "recommendation_candidates",
			Help:    "Candidate set size after combining dimension filters",
			Buckets: []float64{10, 20, 50, 100, 250, 500, 1000, 2500},
		}),

		relaxations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "candidate_relaxations_total",
			Help: "Candidate filter relaxations by rule",
		}, []string{"rule"}),

		filtered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recommendations_post_filtered_total",
			Help: "Ranked results dropped by location or grade post-filters",
		}),

		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_events_total",
			Help: "Feedback and usage events by kind and sink",
		}, []string{"kind", "sink"}),
	}

	registerCollectors(logger,
		m.requests, m.duration, m.candidates, m.relaxations, m.filtered, m.events)

	return m
}

// registerCollectors registers each collector, tolerating duplicates so
// repeated construction (tests, reloads) never panics.
func registerCollectors(logger *logrus.Logger, collectors ...prometheus.Collector) {
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				logger.WithError(err).Warn("Failed to register metric")
			}
		}
	}
}

func (m *EngineMetrics) ObserveRequest(status string, cacheHit bool, seconds float64, candidates int) {
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	m.requests.WithLabelValues(status, cache).Inc()
	m.duration.Observe(seconds)
	if status == "ok" {
		m.candidates.Observe(float64(candidates))
	}
}

func (m *EngineMetrics) RelaxationApplied(rule string) {
	m.relaxations.WithLabelValues(rule).Inc()
}

func (m *EngineMetrics) PostFilterDropped(count int) {
	m.filtered.Add(float64(count))
}

func (m *EngineMetrics) EventRecorded(kind, sink string) {
	m.events.WithLabelValues(kind, sink).Inc()
}
