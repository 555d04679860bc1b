package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Analysis run metrics
	AnalysisRunsTotal  prometheus.Counter
	AnalysisRunsFailed prometheus.Counter
	AnalysisDuration   prometheus.Histogram

	// Per-product classification metrics
	ProductsClassified *prometheus.CounterVec
	ProductsDropped    prometheus.Counter

	// Reference catalog metrics
	CatalogLookups        *prometheus.CounterVec
	CatalogLookupDuration prometheus.Histogram

	// Estimation metrics
	Estimations *prometheus.CounterVec

	// Inventory metrics
	EquipmentMutations *prometheus.CounterVec
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// GetMetrics returns the singleton metrics instance
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			AnalysisRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "eoltrack_analysis_runs_total",
				Help: "Total number of obsolescence analysis runs",
			}),
			AnalysisRunsFailed: promauto.NewCounter(prometheus.CounterOpts{
				Name: "eoltrack_analysis_runs_failed_total",
				Help: "Total number of analysis runs whose results could not be persisted",
			}),
			AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "eoltrack_analysis_duration_seconds",
				Help:    "Duration of full analysis runs in seconds",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4min
			}),

			ProductsClassified: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "eoltrack_products_classified_total",
					Help: "Total number of product classifications produced by type and source",
				},
				[]string{"type", "source"},
			),
			ProductsDropped: promauto.NewCounter(prometheus.CounterOpts{
				Name: "eoltrack_products_dropped_total",
				Help: "Total number of operating system observations dropped without a classification",
			}),

			CatalogLookups: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "eoltrack_catalog_lookups_total",
					Help: "Total number of reference catalog lookups by result",
				},
				[]string{"result"}, // found, not_found, error
			),
			CatalogLookupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "eoltrack_catalog_lookup_duration_seconds",
				Help:    "Duration of reference catalog lookups in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			}),

			Estimations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "eoltrack_estimations_total",
					Help: "Total number of end-of-life estimations by tier and result",
				},
				[]string{"tier", "result"},
			),

			EquipmentMutations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "eoltrack_equipment_mutations_total",
					Help: "Total number of equipment create, update and delete operations",
				},
				[]string{"operation"},
			),
		}
	})
	return metricsInstance
}
