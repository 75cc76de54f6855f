package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRunMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitfix_runs_total",
			Help: "Total number of audit runs",
		},
		[]string{"status"},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fitfix_run_duration_seconds",
			Help:    "Audit run duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
	)

	r.FittingsUpdatedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitfix_fittings_updated_total",
			Help: "Total number of fittings whose plan committed",
		},
		[]string{"kind"},
	)

	r.FittingsSkippedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitfix_fittings_skipped_total",
			Help: "Total number of fittings skipped or rolled back",
		},
		[]string{"kind"},
	)

	r.PlansBuiltTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitfix_plans_built_total",
			Help: "Total number of configuration plans built",
		},
		[]string{"kind"},
	)

	r.RollbacksTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "fitfix_rollbacks_total",
			Help: "Total number of atomic units rolled back",
		},
	)
}
