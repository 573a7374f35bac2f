package metrics

import "github.com/prometheus/client_golang/prometheus"

// Intake pipeline Prometheus metrics.
var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "formdex",
			Name:      "submissions_total",
			Help:      "Total number of processed submissions",
		},
		[]string{"kind", "operation", "outcome"},
	)

	NormalizeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "formdex",
			Name:      "normalize_duration_seconds",
			Help:      "Submission normalization duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
		[]string{"kind"},
	)

	ValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "formdex",
			Name:      "validation_failures_total",
			Help:      "Submission validation failures by reason",
		},
		[]string{"reason"},
	)

	DuplicateDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "formdex",
			Name:      "duplicate_decisions_total",
			Help:      "Duplicate detection decisions by policy and action",
		},
		[]string{"kind", "action"}, // action: "none" / "flag" / "reject" / "existing"
	)

	ImportItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "formdex",
			Name:      "import_items_total",
			Help:      "Bulk import items by status",
		},
		[]string{"kind", "status"},
	)

	SchemaCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "formdex",
			Name:      "schema_cache_total",
			Help:      "Schema cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers intake pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(SubmissionsTotal)
	prometheus.MustRegister(NormalizeDuration)
	prometheus.MustRegister(ValidationFailuresTotal)
	prometheus.MustRegister(DuplicateDecisionsTotal)
	prometheus.MustRegister(ImportItemsTotal)
	prometheus.MustRegister(SchemaCacheTotal)
	pipelineMetricsRegistered = true
}
