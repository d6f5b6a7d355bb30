package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors updated by the service. A nil
// *Metrics records nothing.
type Metrics struct {
	assessments   *prometheus.CounterVec
	conflicts     *prometheus.CounterVec
	stageFailures *prometheus.CounterVec
	duration      prometheus.Histogram
}

// NewMetrics registers the service collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: category (final risk category)
		assessments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cvrisk",
			Subsystem: "service",
			Name:      "assessments_total",
			Help:      "Total completed assessments by final category",
		}, []string{"category"}),
		// Labels: level (ensemble conflict level)
		conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cvrisk",
			Subsystem: "service",
			Name:      "ensemble_conflicts_total",
			Help:      "Total assessments by estimator conflict level",
		}, []string{"level"}),
		stageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cvrisk",
			Subsystem: "service",
			Name:      "stage_failures_total",
			Help:      "Optional pipeline stages that failed and were omitted",
		}, []string{"stage"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cvrisk",
			Subsystem: "service",
			Name:      "assessment_duration_seconds",
			Help:      "Time taken by one assessment",
			Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
		}),
	}
}

func (m *Metrics) observe(res *RiskResult, seconds float64) {
	if m == nil {
		return
	}
	m.assessments.WithLabelValues(string(res.Category)).Inc()
	m.conflicts.WithLabelValues(string(res.ModelBreakdown.Ensemble.Conflict)).Inc()
	m.duration.Observe(seconds)
}

func (m *Metrics) stageFailed(stage string) {
	if m == nil {
		return
	}
	m.stageFailures.WithLabelValues(stage).Inc()
}
