package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStoreMetrics() {
	r.StoreOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitfix_store_operations_total",
			Help: "Total number of model store operations",
		},
		[]string{"operation", "status"},
	)

	r.StoreOperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitfix_store_operation_duration_seconds",
			Help:    "Model store operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	r.StoreSizeBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "fitfix_store_size_bytes",
			Help: "Size of the persisted model file in bytes",
		},
	)
}
