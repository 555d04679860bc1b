package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/daimoniac/eoltrack/internal/errors"
	"github.com/daimoniac/eoltrack/internal/observability"
	"github.com/daimoniac/eoltrack/internal/types"
)

// Store is the persistence the analysis service reads from and writes to.
type Store interface {
	ListInventory(ctx context.Context) ([]types.Equipment, error)
	// ReplaceClassifications atomically replaces every stored classification.
	ReplaceClassifications(ctx context.Context, classifications []types.Classification) error
}

// RunSummary describes one completed analysis run.
type RunSummary struct {
	OSAnalyzed           int           `json:"os_analyzed"`
	ApplicationsAnalyzed int           `json:"applications_analyzed"`
	Total                int           `json:"total_products"`
	Dropped              int           `json:"dropped"`
	StartedAt            time.Time     `json:"started_at"`
	Duration             time.Duration `json:"duration_ns"`
}

// Service runs full analysis passes over the inventory.
type Service struct {
	analyzer *Analyzer
	store    Store
	logger   *slog.Logger

	runMu sync.Mutex

	mu      sync.RWMutex
	lastRun *RunSummary
}

// NewService creates an analysis service.
func NewService(analyzer *Analyzer, store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		analyzer: analyzer,
		store:    store,
		logger:   logger,
	}
}

// Run loads the inventory, classifies every distinct product and replaces
// the stored classifications. Concurrent calls are serialized.
func (s *Service) Run(ctx context.Context) (*RunSummary, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	metrics := observability.GetMetrics()
	metrics.AnalysisRunsTotal.Inc()
	start := time.Now()

	inventory, err := s.store.ListInventory(ctx)
	if err != nil {
		metrics.AnalysisRunsFailed.Inc()
		return nil, fmt.Errorf("load inventory: %w", err)
	}

	observations := ExtractObservations(inventory)
	s.logger.Info("analysis started",
		"equipment", len(inventory),
		"products", len(observations))

	classifications := s.analyzer.AnalyzeBatch(ctx, observations)

	if err := s.store.ReplaceClassifications(ctx, classifications); err != nil {
		metrics.AnalysisRunsFailed.Inc()
		s.logger.Error("failed to persist classifications",
			"count", len(classifications),
			"error", err)
		return nil, errors.NewTransient(fmt.Errorf("%w: %w", errors.ErrPersistence, err))
	}

	summary := &RunSummary{
		Total:     len(classifications),
		Dropped:   len(observations) - len(classifications),
		StartedAt: start.UTC(),
		Duration:  time.Since(start),
	}
	for _, c := range classifications {
		if c.ProductType == types.ProductTypeOS {
			summary.OSAnalyzed++
		} else {
			summary.ApplicationsAnalyzed++
		}
	}
	metrics.AnalysisDuration.Observe(summary.Duration.Seconds())

	s.mu.Lock()
	s.lastRun = summary
	s.mu.Unlock()

	s.logger.Info("analysis completed",
		"os_analyzed", summary.OSAnalyzed,
		"applications_analyzed", summary.ApplicationsAnalyzed,
		"dropped", summary.Dropped,
		"duration", summary.Duration)

	return summary, nil
}

// LastRun returns the most recent successful run, nil before the first.
func (s *Service) LastRun() *RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return nil
	}
	summary := *s.lastRun
	return &summary
}

// Analyzer returns the underlying analyzer.
func (s *Service) Analyzer() *Analyzer {
	return s.analyzer
}
