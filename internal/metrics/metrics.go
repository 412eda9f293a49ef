// Package metrics exports analysis results as Prometheus metrics for
// serve mode.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iross/chtc-memory-analyzer/internal/analysis"
)

// MetricsPrefix is the global prefix for all metrics.
const MetricsPrefix = "memory_analyzer_"

var (
	runCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricsPrefix + "runs_total",
			Help: "Total number of analysis runs",
		},
		[]string{"status"},
	)

	clustersAnalyzed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricsPrefix + "clusters_analyzed",
			Help: "Number of clusters in the most recent analysis",
		},
	)

	overAllocators = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricsPrefix + "over_allocating_clusters",
			Help: "Number of clusters flagged as memory over-allocators in the most recent analysis",
		},
	)

	userMemory = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: MetricsPrefix + "user_memory_mb",
			Help: "Per-user requested and used memory totals (MB) from the most recent analysis",
		},
		[]string{"owner", "kind"},
	)

	userJobs = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: MetricsPrefix + "user_jobs",
			Help: "Per-user analyzed job count from the most recent analysis",
		},
		[]string{"owner"},
	)
)

// RecordRun records the outcome of one analysis run.
func RecordRun(success bool) {
	if success {
		runCount.WithLabelValues("success").Inc()
	} else {
		runCount.WithLabelValues("failure").Inc()
	}
}

// RecordResult publishes the headline numbers of an analysis result.
// Per-user gauges are reset first so owners absent from this run do not
// keep stale values.
func RecordResult(result *analysis.Result) {
	clustersAnalyzed.Set(float64(len(result.Clusters)))
	overAllocators.Set(float64(len(result.OverAllocators)))

	userMemory.Reset()
	userJobs.Reset()
	for owner, totals := range result.Users {
		userMemory.WithLabelValues(owner, "requested").Set(totals.TotalRequestedMemory)
		userMemory.WithLabelValues(owner, "used").Set(totals.TotalUsedMemory)
		userJobs.WithLabelValues(owner).Set(float64(totals.TotalJobs))
	}
}
