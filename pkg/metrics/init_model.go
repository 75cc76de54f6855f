package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initModelMetrics() {
	r.ModelSegmentsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "fitfix_model_segments_total",
			Help: "Total number of live segments in the model snapshot",
		},
	)

	r.ModelFittingsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "fitfix_model_fittings_total",
			Help: "Total number of live fittings in the model snapshot",
		},
	)

	r.ModelUndoDepth = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "fitfix_model_undo_depth",
			Help: "Number of entries in the model undo journal",
		},
	)
}
