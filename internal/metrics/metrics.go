// Package metrics holds the Prometheus collectors of the catalog pipelines.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "cpu_catalog"

// Registry is the registry served on /metrics.
var Registry = prometheus.NewPedanticRegistry()

var (
	// SyncRunsTotal counts sync runs by scope and outcome.
	SyncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sync_runs_total",
			Help:      "Total number of catalog sync runs",
		},
		[]string{"scope", "status"},
	)

	// SyncInsertedTotal counts rows inserted by sync.
	SyncInsertedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sync_inserted_total",
			Help:      "Total number of catalog rows inserted by sync",
		},
		[]string{"brand"},
	)

	// SourceFailuresTotal counts source pages that could not be fetched.
	SourceFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "source_failures_total",
			Help:      "Total number of source pages that failed to fetch",
		},
		[]string{"brand"},
	)

	// CleanupDeletedTotal counts rows removed per cleanup rule.
	CleanupDeletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cleanup_deleted_total",
			Help:      "Total number of catalog rows deleted by cleanup",
		},
		[]string{"rule"},
	)

	// RunDuration observes wall time of sync and cleanup runs.
	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of catalog pipeline runs",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"pipeline"},
	)
)

// Handler serves the Registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

func init() {
	Registry.MustRegister(
		SyncRunsTotal,
		SyncInsertedTotal,
		SourceFailuresTotal,
		CleanupDeletedTotal,
		RunDuration,

		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}
