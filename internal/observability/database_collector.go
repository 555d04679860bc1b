package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/daimoniac/eoltrack/internal/statestore"
	"github.com/daimoniac/eoltrack/internal/types"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	dbCollectorOnce     sync.Once
	dbCollectorInstance *DatabaseCollector
)

// CollectorStore is the read side of the state store the collector needs.
type CollectorStore interface {
	ClassificationCounts(ctx context.Context) ([]statestore.ClassificationCount, error)
	EquipmentStats(ctx context.Context, location string) (*statestore.EquipmentStats, error)
}

// DatabaseCollector collects metrics from the database on-demand when /metrics is scraped
type DatabaseCollector struct {
	store  CollectorStore
	logger *slog.Logger

	classifiedProductsDesc *prometheus.Desc
	atRiskProductsDesc     *prometheus.Desc
	equipmentDesc          *prometheus.Desc
}

// NewDatabaseCollector creates a new database metrics collector
func NewDatabaseCollector(store CollectorStore, logger *slog.Logger) *DatabaseCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatabaseCollector{
		store:  store,
		logger: logger,
		classifiedProductsDesc: prometheus.NewDesc(
			"eoltrack_classified_products",
			"Products in the latest analysis by obsolescence status and product type",
			[]string{"status", "product_type"},
			nil,
		),
		atRiskProductsDesc: prometheus.NewDesc(
			"eoltrack_at_risk_products",
			"Products in the latest analysis whose status is Critical or High",
			nil,
			nil,
		),
		equipmentDesc: prometheus.NewDesc(
			"eoltrack_equipment",
			"Inventoried equipment by lifecycle status",
			[]string{"status"},
			nil,
		),
	}
}

// RegisterDatabaseCollector registers the database collector exactly once
func RegisterDatabaseCollector(store CollectorStore, logger *slog.Logger) {
	dbCollectorOnce.Do(func() {
		dbCollectorInstance = NewDatabaseCollector(store, logger)
		prometheus.MustRegister(dbCollectorInstance)
		dbCollectorInstance.logger.Info("database metrics collector registered")
	})
}

// Describe sends the metric descriptors to the provided channel
func (c *DatabaseCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.classifiedProductsDesc
	ch <- c.atRiskProductsDesc
	ch <- c.equipmentDesc
}

// Collect queries the database and sends current metrics to the provided channel
func (c *DatabaseCollector) Collect(ch chan<- prometheus.Metric) {
	// Bounded so a locked database cannot stall the /metrics endpoint
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	c.collectClassifications(ctx, ch)
	c.collectEquipment(ctx, ch)
}

// collectClassifications reports every status/type pair, zero included, so
// gauges drop back when a product leaves a tier.
func (c *DatabaseCollector) collectClassifications(ctx context.Context, ch chan<- prometheus.Metric) {
	counts, err := c.store.ClassificationCounts(ctx)
	if err != nil {
		c.logCollectError(ctx, "classification", err)
		return
	}

	byKey := make(map[[2]string]int, len(counts))
	atRisk := 0
	for _, cnt := range counts {
		byKey[[2]string{string(cnt.Status), string(cnt.ProductType)}] += cnt.Count
		if cnt.Status.IsAtRisk() {
			atRisk += cnt.Count
		}
	}

	for _, status := range types.AllStatuses {
		for _, productType := range []types.ProductType{types.ProductTypeOS, types.ProductTypeApplication} {
			ch <- prometheus.MustNewConstMetric(
				c.classifiedProductsDesc,
				prometheus.GaugeValue,
				float64(byKey[[2]string{string(status), string(productType)}]),
				string(status), string(productType),
			)
		}
	}

	ch <- prometheus.MustNewConstMetric(
		c.atRiskProductsDesc,
		prometheus.GaugeValue,
		float64(atRisk),
	)
}

func (c *DatabaseCollector) collectEquipment(ctx context.Context, ch chan<- prometheus.Metric) {
	stats, err := c.store.EquipmentStats(ctx, "")
	if err != nil {
		c.logCollectError(ctx, "equipment", err)
		return
	}

	for _, group := range stats.ByStatus {
		ch <- prometheus.MustNewConstMetric(
			c.equipmentDesc,
			prometheus.GaugeValue,
			float64(group.Count),
			group.Key,
		)
	}
}

func (c *DatabaseCollector) logCollectError(ctx context.Context, metric string, err error) {
	if ctx.Err() != nil {
		c.logger.Debug("metric collection timed out (likely database locked)", "metric", metric, "error", err)
		return
	}
	c.logger.Error("failed to collect database metric", "metric", metric, "error", err)
}
