package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/daimoniac/eoltrack/internal/analyzer"
	"github.com/daimoniac/eoltrack/internal/api"
	"github.com/daimoniac/eoltrack/internal/catalog"
	"github.com/daimoniac/eoltrack/internal/config"
	"github.com/daimoniac/eoltrack/internal/eol"
	"github.com/daimoniac/eoltrack/internal/estimator"
	"github.com/daimoniac/eoltrack/internal/lifecycle"
	"github.com/daimoniac/eoltrack/internal/observability"
	"github.com/daimoniac/eoltrack/internal/policy"
	"github.com/daimoniac/eoltrack/internal/scheduler"
	"github.com/daimoniac/eoltrack/internal/statestore"
)

const healthCheckInterval = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel)
	logger.Info("starting eoltrack",
		"config_path", cfg.ConfigPath,
		"log_level", cfg.Observability.LogLevel)

	_ = observability.GetMetrics()

	healthChecker := observability.NewHealthChecker(logger)
	healthChecker.RegisterComponent("config")
	healthChecker.RegisterComponent("database")
	healthChecker.UpdateComponentHealth("config", observability.StatusHealthy, "")

	obsServer := observability.NewServer(
		cfg.Observability.MetricsPort,
		cfg.Observability.HealthCheckPort,
		logger,
		healthChecker,
	)

	go func() {
		if err := obsServer.Start(ctx); err != nil {
			logger.Error("observability server error",
				"error", err.Error())
		}
	}()

	logger.Debug("initializing state store",
		"type", cfg.StateStore.Type,
		"path", cfg.StateStore.SQLitePath)
	store, err := statestore.NewSQLiteStore(cfg.StateStore.SQLitePath, logger)
	if err != nil {
		healthChecker.UpdateComponentHealth("database", observability.StatusUnhealthy, err.Error())
		return fmt.Errorf("failed to initialize sqlite store: %w", err)
	}
	healthChecker.UpdateComponentHealth("database", observability.StatusHealthy, "")
	observability.RegisterDatabaseCollector(store, logger)

	normalizer, err := catalog.NewNormalizer(cfg.Catalog.OSTable, cfg.Catalog.AppTable)
	if err != nil {
		return fmt.Errorf("invalid product catalog: %w", err)
	}
	gateway := eol.NewHTTPGateway(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, logger)

	checks := map[string]observability.HealthCheckFunc{
		"database": store.Ping,
	}

	// Left nil when no host is configured so the estimator skips the model tier
	var model estimator.EstimationClient
	if cfg.Estimation.OllamaHost != "" {
		ollamaClient, err := estimator.NewOllamaClient(cfg.Estimation.OllamaHost, cfg.Estimation.Model, cfg.Estimation.Timeout, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize estimation model: %w", err)
		}
		model = ollamaClient
		healthChecker.RegisterOptionalComponent("ollama")
		checks["ollama"] = ollamaClient.Ping
	} else {
		logger.Info("no estimation model configured, using keyword heuristics only")
	}

	osFallback, err := analyzer.ParseOSFallback(cfg.Analysis.OSFallback)
	if err != nil {
		return fmt.Errorf("invalid analysis configuration: %w", err)
	}

	classifier := lifecycle.NewClassifier(nil)
	est := estimator.New(model, cfg.Estimation.Heuristic, nil, logger)
	obsAnalyzer := analyzer.New(normalizer, gateway, classifier, est, osFallback, logger)
	service := analyzer.NewService(obsAnalyzer, store, logger)

	alertPolicy, err := policy.NewEngine(logger, cfg.Alerts.Policy)
	if err != nil {
		return fmt.Errorf("failed to initialize alert policy: %w", err)
	}

	analysisScheduler := scheduler.NewScheduler(service, scheduler.Config{
		Interval:     cfg.Analysis.Interval,
		RunOnStartup: cfg.Analysis.OnStartup,
	}, logger)

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		healthChecker.StartPeriodicChecks(ctx, healthCheckInterval, checks)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := analysisScheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- fmt.Errorf("analysis scheduler error: %w", err)
		}
	}()

	var apiServer *api.APIServer
	if cfg.API.Enabled {
		apiServer = api.NewAPIServer(&cfg.API, store, service, alertPolicy, cfg.Alerts.Limit, healthChecker, logger)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := apiServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errChan <- fmt.Errorf("API server error: %w", err)
			}
		}()
	}

	logger.Info("all components started successfully",
		"api_enabled", cfg.API.Enabled,
		"analysis_interval", cfg.Analysis.Interval.String(),
		"model_enabled", est.ModelEnabled())

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errChan:
		logger.Error("component error, initiating shutdown",
			"error", err.Error())
		cancel()
	}

	logger.Info("shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("all components stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, forcing exit")
	}

	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down observability server",
			"error", err.Error())
	}

	if err := store.Close(); err != nil {
		logger.Error("error closing state store",
			"error", err.Error())
	}

	logger.Info("shutdown complete")
	return nil
}
