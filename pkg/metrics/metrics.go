package metrics

import (
	"time"
)

// Run statuses reported to RecordRun.
const (
	RunCompleted = "completed"
	RunAborted   = "aborted"
)

// RecordRun records one audit run with its duration
func (r *Registry) RecordRun(status string, duration time.Duration) {
	r.RunsTotal.WithLabelValues(status).Inc()
	r.RunDuration.Observe(duration.Seconds())
}

// RecordFittingUpdated records a fitting whose plan committed
func (r *Registry) RecordFittingUpdated(kind string) {
	r.FittingsUpdatedTotal.WithLabelValues(kind).Inc()
}

// RecordFittingSkipped records a fitting that was skipped or rolled back
func (r *Registry) RecordFittingSkipped(kind string) {
	r.FittingsSkippedTotal.WithLabelValues(kind).Inc()
}

// RecordPlanBuilt records a configuration plan handed to the applier
func (r *Registry) RecordPlanBuilt(kind string) {
	r.PlansBuiltTotal.WithLabelValues(kind).Inc()
}

// RecordRollback records an atomic unit that was rolled back
func (r *Registry) RecordRollback() {
	r.RollbacksTotal.Inc()
}

// UpdateModelCounts updates the snapshot size gauges
func (r *Registry) UpdateModelCounts(segments, fittings int) {
	r.ModelSegmentsTotal.Set(float64(segments))
	r.ModelFittingsTotal.Set(float64(fittings))
}

// SetUndoDepth updates the undo journal depth gauge
func (r *Registry) SetUndoDepth(depth int) {
	r.ModelUndoDepth.Set(float64(depth))
}

// RecordStoreOperation records a model store load or save
func (r *Registry) RecordStoreOperation(operation, status string, duration time.Duration) {
	r.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	r.StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetStoreSize updates the on-disk model size gauge
func (r *Registry) SetStoreSize(bytes int64) {
	r.StoreSizeBytes.Set(float64(bytes))
}
