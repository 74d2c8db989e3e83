package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mockprep"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	aiRequests  *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	analytics   *prometheus.CounterVec
	sessions    *prometheus.CounterVec
	scores      prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		aiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "Generative model calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answer_evaluations_total",
			Help:      "Answer evaluations by modality and outcome.",
		}, []string{"modality", "outcome"}),
		analytics: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_reports_total",
			Help:      "Analytics backend reports by kind and outcome.",
		}, []string{"kind", "outcome"}),
		sessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Test session transitions by name.",
		}, []string{"transition"}),
		scores: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_score_percentage",
			Help:      "Final percentage score of completed sessions.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
	}
}

func (m *Metrics) AIRequest(operation, outcome string) {
	if m == nil {
		return
	}
	m.aiRequests.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) Evaluation(modality, outcome string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(modality, outcome).Inc()
}

func (m *Metrics) AnalyticsReport(kind, outcome string) {
	if m == nil {
		return
	}
	m.analytics.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) SessionTransition(name string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(name).Inc()
}

func (m *Metrics) SessionScore(percentage float64) {
	if m == nil {
		return
	}
	m.scores.Observe(percentage)
}
