package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/daimoniac/eoltrack/internal/analyzer"
)

// Runner performs one analysis pass
type Runner interface {
	Run(ctx context.Context) (*analyzer.RunSummary, error)
}

// Scheduler re-runs the obsolescence analysis on a fixed interval
type Scheduler interface {
	// Start blocks until ctx is cancelled
	Start(ctx context.Context) error
}

// Config contains configuration for the scheduler
type Config struct {
	// Interval between the end of one run and the start of the next; zero disables periodic runs
	Interval time.Duration
	// RunOnStartup triggers a run before the first interval elapses
	RunOnStartup bool
}

type schedulerImpl struct {
	runner       Runner
	interval     time.Duration
	runOnStartup bool
	logger       *slog.Logger
}

// NewScheduler creates a new analysis scheduler
func NewScheduler(runner Runner, config Config, logger *slog.Logger) Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &schedulerImpl{
		runner:       runner,
		interval:     config.Interval,
		runOnStartup: config.RunOnStartup,
		logger:       logger,
	}
}

// Start runs the analysis at startup when configured, then every interval.
// Failed runs are logged and retried at the next tick.
func (s *schedulerImpl) Start(ctx context.Context) error {
	s.logger.Info("starting analysis scheduler",
		"interval", s.interval.String(),
		"run_on_startup", s.runOnStartup)

	if s.runOnStartup {
		s.run(ctx, "startup")
	}

	if s.interval <= 0 {
		s.logger.Info("periodic analysis disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	// Wait for the interval after each run completes so slow runs never overlap
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("analysis scheduler shutting down")
			return ctx.Err()
		case <-time.After(s.interval):
			s.run(ctx, "scheduled")
		}
	}
}

func (s *schedulerImpl) run(ctx context.Context, trigger string) {
	summary, err := s.runner.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("analysis run failed",
			"trigger", trigger,
			"error", err.Error())
		return
	}
	s.logger.Debug("analysis run finished",
		"trigger", trigger,
		"total_products", summary.Total)
}
