package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ComponentStatus represents the health status of a component
type ComponentStatus string

const (
	StatusHealthy   ComponentStatus = "healthy"
	StatusDegraded  ComponentStatus = "degraded"
	StatusUnhealthy ComponentStatus = "unhealthy"
	StatusUnknown   ComponentStatus = "unknown"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Status    ComponentStatus `json:"status"`
	Optional  bool            `json:"optional,omitempty"`
	Message   string          `json:"message,omitempty"`
	LastCheck time.Time       `json:"last_check"`
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status     ComponentStatus            `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  time.Time                  `json:"timestamp"`
}

// HealthChecker tracks component health. Optional components (such as the
// AI estimation service) only degrade the overall status, because analysis
// still completes with the heuristic tier when they are down.
type HealthChecker struct {
	mu         sync.RWMutex
	components map[string]ComponentHealth
	logger     *slog.Logger
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(logger *slog.Logger) *HealthChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthChecker{
		components: make(map[string]ComponentHealth),
		logger:     logger,
	}
}

// RegisterComponent registers a required component
func (h *HealthChecker) RegisterComponent(name string) {
	h.register(name, false)
}

// RegisterOptionalComponent registers a component whose failure degrades but does not fail readiness
func (h *HealthChecker) RegisterOptionalComponent(name string) {
	h.register(name, true)
}

func (h *HealthChecker) register(name string, optional bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components[name] = ComponentHealth{
		Status:    StatusUnknown,
		Optional:  optional,
		LastCheck: time.Now().UTC(),
	}
}

// UpdateComponentHealth updates the health status of a component
func (h *HealthChecker) UpdateComponentHealth(name string, status ComponentStatus, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components[name] = ComponentHealth{
		Status:    status,
		Optional:  h.components[name].Optional,
		Message:   message,
		LastCheck: time.Now().UTC(),
	}
}

// GetHealth returns the current health status
func (h *HealthChecker) GetHealth() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	components := make(map[string]ComponentHealth, len(h.components))
	status := StatusHealthy

	for name, health := range h.components {
		components[name] = health
		if health.Status == StatusHealthy {
			continue
		}
		if health.Optional {
			if status == StatusHealthy {
				status = StatusDegraded
			}
			continue
		}
		status = StatusUnhealthy
	}

	return HealthStatus{
		Status:     status,
		Components: components,
		Timestamp:  time.Now().UTC(),
	}
}

// Ready reports whether every required component is healthy
func (h *HealthChecker) Ready() bool {
	return h.GetHealth().Status != StatusUnhealthy
}

// HealthCheckFunc is a function that checks the health of a component
type HealthCheckFunc func(ctx context.Context) error

// CheckComponent runs a health check function and updates the component status
func (h *HealthChecker) CheckComponent(ctx context.Context, name string, checkFunc HealthCheckFunc) {
	if err := checkFunc(ctx); err != nil {
		h.UpdateComponentHealth(name, StatusUnhealthy, err.Error())
		h.logger.Warn("component health check failed",
			"component", name,
			"error", err.Error())
		return
	}
	h.UpdateComponentHealth(name, StatusHealthy, "")
}

// StartPeriodicChecks runs the checks immediately and then on every interval until ctx is cancelled.
// Each check gets at most half the interval to complete.
func (h *HealthChecker) StartPeriodicChecks(ctx context.Context, interval time.Duration, checks map[string]HealthCheckFunc) {
	runAll := func() {
		for name, checkFunc := range checks {
			checkCtx, cancel := context.WithTimeout(ctx, interval/2)
			h.CheckComponent(checkCtx, name, checkFunc)
			cancel()
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runAll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runAll()
		}
	}
}

// HealthHandler returns an HTTP handler for the health endpoint
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := h.GetHealth()

		w.Header().Set("Content-Type", "application/json")
		if health.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		if err := json.NewEncoder(w).Encode(health); err != nil {
			h.logger.Error("failed to encode health response",
				"error", err.Error())
		}
	}
}

// ReadyHandler returns an HTTP handler for the readiness endpoint
func (h *HealthChecker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		status, body := http.StatusOK, map[string]string{"status": "ready"}
		if !h.Ready() {
			status, body = http.StatusServiceUnavailable, map[string]string{"status": "not_ready"}
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
