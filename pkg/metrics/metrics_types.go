package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every collector the audit tool records into
type Registry struct {
	// Run Metrics
	RunsTotal            *prometheus.CounterVec
	RunDuration          prometheus.Histogram
	FittingsUpdatedTotal *prometheus.CounterVec
	FittingsSkippedTotal *prometheus.CounterVec
	PlansBuiltTotal      *prometheus.CounterVec
	RollbacksTotal       prometheus.Counter

	// Model Metrics
	ModelSegmentsTotal prometheus.Gauge
	ModelFittingsTotal prometheus.Gauge
	ModelUndoDepth     prometheus.Gauge

	// Store Metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
	StoreSizeBytes         prometheus.Gauge

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every collector registered
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initRunMetrics()
	r.initModelMetrics()
	r.initStoreMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
