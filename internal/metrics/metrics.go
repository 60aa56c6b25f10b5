// Package metrics exposes Prometheus collectors for standardization runs.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agenthands/modelstd/internal/core/model"
)

const namespace = "modelstd"

type Metrics struct {
	Runs     *prometheus.CounterVec
	Rounds   prometheus.Histogram
	Duration prometheus.Histogram
	Entities *prometheus.CounterVec
	Errors   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Standardization runs by outcome.",
		}, []string{"outcome"}),
		Rounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rounds",
			Help:      "Matching rounds used per run.",
			Buckets:   []float64{1, 2, 3, 4, 5, 7, 10, 15, 20},
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a standardization run.",
			Buckets:   prometheus.DefBuckets,
		}),
		Entities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_total",
			Help:      "Compounds and reactions by final match tier.",
		}, []string{"kind", "tier"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Aborted runs by error class.",
		}, []string{"class"}),
	}
	if reg != nil {
		reg.MustRegister(m.Runs, m.Rounds, m.Duration, m.Entities, m.Errors)
	}
	return m
}

func (m *Metrics) ObserveReport(report model.ComparisonReport) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(string(report.Outcome)).Inc()
	m.Rounds.Observe(float64(report.Rounds))
	m.Duration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	for kind, counts := range map[model.Kind]model.TierCounts{
		model.KindCompound: report.Compounds,
		model.KindReaction: report.Reactions,
	} {
		m.Entities.WithLabelValues(string(kind), "exact").Add(float64(counts.Exact))
		m.Entities.WithLabelValues(string(kind), "probable").Add(float64(counts.Probable))
		m.Entities.WithLabelValues(string(kind), "ambiguous").Add(float64(counts.Ambiguous))
		m.Entities.WithLabelValues(string(kind), "unmatched").Add(float64(counts.Unmatched))
	}
}

func (m *Metrics) ObserveError(err error) {
	if m == nil || err == nil {
		return
	}
	var structural *model.StructuralError
	var collision *model.CollisionError
	switch {
	case errors.As(err, &structural):
		m.Errors.WithLabelValues("structural").Inc()
	case errors.As(err, &collision):
		m.Errors.WithLabelValues("collision").Inc()
	default:
		m.Errors.WithLabelValues("other").Inc()
	}
}
