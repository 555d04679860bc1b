package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/daimoniac/eoltrack/internal/analyzer"
	"github.com/daimoniac/eoltrack/internal/catalog"
	"github.com/daimoniac/eoltrack/internal/eol"
	"github.com/daimoniac/eoltrack/internal/errors"
	"github.com/daimoniac/eoltrack/internal/estimator"
	"github.com/daimoniac/eoltrack/internal/policy"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from environment variables and the optional eoltrack.yml
func Load() (*Config, error) {
	configPath := getEnv("EOLTRACK_CONFIG", "eoltrack.yml")

	file, err := ParseFile(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		file = &FileConfig{}
	}

	osTable, appTable := mergeTables(file.Catalog)

	heuristic := estimator.DefaultHeuristic
	if len(file.Heuristics) > 0 {
		heuristic = append(estimator.Heuristic{}, file.Heuristics...)
	}

	interval, err := parseOptionalInterval(getEnv("ANALYSIS_INTERVAL", file.Analysis.Interval))
	if err != nil {
		return nil, errors.NewPermanentf("invalid ANALYSIS_INTERVAL: %w", err)
	}

	alertLimit := file.Alerts.Limit
	if alertLimit == 0 {
		alertLimit = analyzer.DefaultAlertLimit
	}

	cfg := &Config{
		ConfigPath: configPath,
		StateStore: StateStoreConfig{
			Type:       getEnv("STATE_STORE_TYPE", "sqlite"),
			SQLitePath: getEnv("SQLITE_PATH", "eoltrack.db"),
		},
		Catalog: CatalogConfig{
			BaseURL:  getEnv("EOL_API_BASE_URL", eol.DefaultBaseURL),
			Timeout:  getEnvDuration("EOL_API_TIMEOUT", eol.DefaultTimeout),
			OSTable:  osTable,
			AppTable: appTable,
		},
		Estimation: EstimationConfig{
			OllamaHost: getEnv("ESTIMATION_OLLAMA_HOST", ""),
			Model:      getEnv("ESTIMATION_MODEL", estimator.DefaultModel),
			Timeout:    getEnvDuration("ESTIMATION_TIMEOUT", estimator.DefaultTimeout),
			Heuristic:  heuristic,
		},
		Analysis: AnalysisConfig{
			OSFallback: getEnv("ANALYZER_OS_FALLBACK", file.Analysis.OSFallback),
			Interval:   interval,
			OnStartup:  getEnvBool("ANALYZE_ON_STARTUP", false),
		},
		Alerts: AlertsConfig{
			Policy: policy.PolicyConfig{
				Expression: file.Alerts.Expression,
				Message:    file.Alerts.Message,
			},
			Limit: alertLimit,
		},
		API: APIConfig{
			Enabled:  getEnvBool("API_ENABLED", true),
			Port:     getEnvInt("API_PORT", 8080),
			APIKey:   getEnv("EOLTRACK_API_KEY", ""),
			ReadOnly: getEnvBool("API_READ_ONLY", false),
		},
		Observability: ObservabilityConfig{
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			MetricsPort:     getEnvInt("METRICS_PORT", 9090),
			HealthCheckPort: getEnvInt("HEALTH_CHECK_PORT", 8081),
		},
	}

	return cfg, nil
}

// ParseFile reads and parses an eoltrack.yml configuration file
func ParseFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewTransient(err)
	}

	var file FileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.NewPermanentf("failed to parse %s: %w", path, err)
	}

	return &file, nil
}

// mergeTables places file entries ahead of the built-in tables so they win
// on overlap, or replaces the built-ins entirely.
func mergeTables(file CatalogFile) (catalog.Table, catalog.Table) {
	if file.ReplaceDefaults {
		return append(catalog.Table{}, file.OS...), append(catalog.Table{}, file.Applications...)
	}
	osTable := append(append(catalog.Table{}, file.OS...), catalog.DefaultOSTable...)
	appTable := append(append(catalog.Table{}, file.Applications...), catalog.DefaultAppTable...)
	return osTable, appTable
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.StateStore.Type != "sqlite" {
		return errors.NewPermanentf("invalid state store type: %s (must be sqlite)", c.StateStore.Type)
	}

	if c.StateStore.SQLitePath == "" {
		return errors.NewPermanentf("SQLITE_PATH is required when using sqlite state store")
	}

	u, err := url.Parse(c.Catalog.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.NewPermanentf("EOL_API_BASE_URL must be an absolute http(s) URL, got %q", c.Catalog.BaseURL)
	}

	if c.Catalog.Timeout <= 0 {
		return errors.NewPermanentf("EOL_API_TIMEOUT must be positive")
	}

	if len(c.Catalog.OSTable) == 0 || len(c.Catalog.AppTable) == 0 {
		return errors.NewPermanentf("catalog tables must not be empty")
	}

	if err := c.Catalog.OSTable.Validate(); err != nil {
		return errors.NewPermanentf("invalid catalog OS table: %w", err)
	}

	if err := c.Catalog.AppTable.Validate(); err != nil {
		return errors.NewPermanentf("invalid catalog application table: %w", err)
	}

	if c.Estimation.OllamaHost != "" && c.Estimation.Timeout <= 0 {
		return errors.NewPermanentf("ESTIMATION_TIMEOUT must be positive")
	}

	if err := c.Estimation.Heuristic.Validate(); err != nil {
		return errors.NewPermanentf("invalid heuristics: %w", err)
	}

	if _, err := analyzer.ParseOSFallback(c.Analysis.OSFallback); err != nil {
		return errors.NewPermanentf("invalid ANALYZER_OS_FALLBACK: %w", err)
	}

	if c.Analysis.Interval < 0 {
		return errors.NewPermanentf("ANALYSIS_INTERVAL must not be negative")
	}

	if c.Alerts.Limit <= 0 {
		return errors.NewPermanentf("alert limit must be positive, got %d", c.Alerts.Limit)
	}

	for name, port := range map[string]int{
		"API_PORT":          c.API.Port,
		"METRICS_PORT":      c.Observability.MetricsPort,
		"HEALTH_CHECK_PORT": c.Observability.HealthCheckPort,
	} {
		if port <= 0 || port > 65535 {
			return errors.NewPermanentf("%s out of range: %d", name, port)
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intValue int
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		value = strings.ToLower(value)
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
