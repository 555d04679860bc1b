package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/daimoniac/eoltrack/internal/analyzer"
	"github.com/daimoniac/eoltrack/internal/config"
	"github.com/daimoniac/eoltrack/internal/observability"
	"github.com/daimoniac/eoltrack/internal/policy"
	"github.com/daimoniac/eoltrack/internal/statestore"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/daimoniac/eoltrack/build/swagger" // Register API docs
)

// @title eoltrack API
// @version 1.0
// @description REST API for the equipment inventory and its end-of-life risk analysis.
// @description
// @description ## Features
// @description - Manage equipment and installed applications
// @description - Run the obsolescence analysis and browse classified products
// @description - Risk statistics and alerts
// @description - Ad-hoc classification of a single product

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter your API key (with or without "Bearer " prefix)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Store is the persistence the API reads and writes.
type Store interface {
	statestore.EquipmentStore
	statestore.ClassificationStore
}

// APIServer provides the HTTP API for the inventory and the analysis
type APIServer struct {
	config      *config.APIConfig
	store       Store
	service     *analyzer.Service
	alertPolicy policy.AlertPolicy
	alertLimit  int
	health      *observability.HealthChecker
	router      *http.ServeMux
	server      *http.Server
	logger      *slog.Logger
}

// NewAPIServer creates a new API server instance. health may be nil.
func NewAPIServer(cfg *config.APIConfig, store Store, service *analyzer.Service, alertPolicy policy.AlertPolicy, alertLimit int, health *observability.HealthChecker, logger *slog.Logger) *APIServer {
	if logger == nil {
		logger = slog.Default()
	}
	if alertLimit <= 0 {
		alertLimit = analyzer.DefaultAlertLimit
	}

	api := &APIServer{
		config:      cfg,
		store:       store,
		service:     service,
		alertPolicy: alertPolicy,
		alertLimit:  alertLimit,
		health:      health,
		router:      http.NewServeMux(),
		logger:      logger,
	}

	api.setupRoutes()

	// POST /obsolescence/analyze runs the analysis inside the request,
	// hence the long write timeout
	api.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return api
}

// setupRoutes configures all API routes
func (s *APIServer) setupRoutes() {
	// Inventory
	s.router.HandleFunc("/api/v1/equipment", s.corsMiddleware(s.authMiddleware(s.handleEquipmentCollection, writesByMethod)))
	s.router.HandleFunc("/api/v1/equipment/", s.corsMiddleware(s.authMiddleware(s.handleEquipmentItem, writesByMethod)))
	s.router.HandleFunc("/api/v1/equipment/stats", s.corsMiddleware(s.authMiddleware(s.handleEquipmentStats, readOnly)))
	s.router.HandleFunc("/api/v1/equipment/locations", s.corsMiddleware(s.authMiddleware(s.handleListLocations, readOnly)))

	// Obsolescence
	s.router.HandleFunc("/api/v1/obsolescence/analyze", s.corsMiddleware(s.authMiddleware(s.handleAnalyze, alwaysWrite)))
	s.router.HandleFunc("/api/v1/obsolescence/products", s.corsMiddleware(s.authMiddleware(s.handleListProducts, readOnly)))
	s.router.HandleFunc("/api/v1/obsolescence/products/", s.corsMiddleware(s.authMiddleware(s.handleGetProduct, readOnly)))
	s.router.HandleFunc("/api/v1/obsolescence/stats", s.corsMiddleware(s.authMiddleware(s.handleObsolescenceStats, readOnly)))
	s.router.HandleFunc("/api/v1/obsolescence/alerts", s.corsMiddleware(s.authMiddleware(s.handleAlerts, readOnly)))
	// Classifies without persisting, so allowed in read-only mode
	s.router.HandleFunc("/api/v1/obsolescence/check", s.corsMiddleware(s.authMiddleware(s.handleCheckProduct, readOnly)))

	s.router.HandleFunc("/health", s.corsMiddleware(s.handleHealth))

	// Swagger documentation
	s.router.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Redirect root to swagger
	s.router.HandleFunc("/", s.handleRootRedirect)
}

// writeCheck decides whether a request modifies state
type writeCheck func(r *http.Request) bool

func readOnly(*http.Request) bool    { return false }
func alwaysWrite(*http.Request) bool { return true }

func writesByMethod(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

// corsMiddleware adds CORS headers to allow cross-origin requests
func (s *APIServer) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		// Handle preflight OPTIONS request
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// authMiddleware provides optional API key authentication.
// Requests for which requiresWrite is true are rejected in read-only mode.
func (s *APIServer) authMiddleware(next http.HandlerFunc, requiresWrite writeCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.config.ReadOnly && requiresWrite(r) {
			s.respondError(w, http.StatusForbidden, "API is in read-only mode")
			return
		}

		if s.config.APIKey != "" {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				s.respondError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			// Accept both "Bearer <token>" and just "<token>"
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token != s.config.APIKey {
				s.respondError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}
		}

		next(w, r)
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *APIServer) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("API server is disabled")
		return nil
	}

	s.logger.Info("starting API server",
		"port", s.config.Port,
		"read_only", s.config.ReadOnly,
		"auth_enabled", s.config.APIKey != "")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server error",
				"error", err.Error())
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("shutting down API server")
	return s.server.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the API server
func (s *APIServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests
func (s *APIServer) Handler() http.Handler {
	return s.router
}

// respondJSON sends a JSON response
func (s *APIServer) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("error encoding JSON response",
			"error", err.Error())
	}
}

// respondError sends an error response
func (s *APIServer) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a size-limited JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// parseQueryParam returns the first non-empty value among the given keys
func parseQueryParam(r *http.Request, keys ...string) string {
	q := r.URL.Query()
	for _, key := range keys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			return v
		}
	}
	return ""
}

// parseQueryParamInt extracts an integer query parameter
func parseQueryParamInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
		return intValue
	}
	return defaultValue
}

// parseQueryParamBool extracts a boolean query parameter
func parseQueryParamBool(r *http.Request, key string) bool {
	value := strings.ToLower(r.URL.Query().Get(key))
	return value == "true" || value == "1" || value == "yes"
}

// pathID parses the numeric id following prefix in the request path
func pathID(r *http.Request, prefix string) (int64, bool) {
	raw := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if raw == "" || strings.Contains(raw, "/") {
		return 0, false
	}
	var id int64
	if _, err := fmt.Sscanf(raw, "%d", &id); err != nil || id <= 0 || fmt.Sprint(id) != raw {
		return 0, false
	}
	return id, true
}

// handleRootRedirect redirects / to /swagger/
func (s *APIServer) handleRootRedirect(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.respondError(w, http.StatusNotFound, "not found")
		return
	}
	http.Redirect(w, r, "/swagger/", http.StatusMovedPermanently)
}
