package pool

import "github.com/prometheus/client_golang/prometheus"

// Metric label values for completion kinds.
const (
	kindValue   = "value"
	kindStopped = "stopped"
	kindError   = "error"
)

var (
	completionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sysexec_pool_completions_total",
			Help: "Total completions delivered by the pool engine, by kind.",
		},
		[]string{"kind"},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sysexec_pool_queue_depth",
			Help: "Number of work items waiting in the pool run queue.",
		},
	)

	bulkIndexDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sysexec_pool_bulk_index_seconds",
			Help:    "Duration of individual bulk index invocations, in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(completionsTotal)
	prometheus.MustRegister(queueDepth)
	prometheus.MustRegister(bulkIndexDuration)

	// Pre-initialize the kind labels so all three series appear in
	// /metrics before the first completion.
	completionsTotal.WithLabelValues(kindValue)
	completionsTotal.WithLabelValues(kindStopped)
	completionsTotal.WithLabelValues(kindError)
}
