package config

import (
	"time"

	"github.com/daimoniac/eoltrack/internal/catalog"
	"github.com/daimoniac/eoltrack/internal/estimator"
	"github.com/daimoniac/eoltrack/internal/policy"
)

// Config represents the complete application configuration
type Config struct {
	ConfigPath    string
	StateStore    StateStoreConfig
	Catalog       CatalogConfig
	Estimation    EstimationConfig
	Analysis      AnalysisConfig
	Alerts        AlertsConfig
	API           APIConfig
	Observability ObservabilityConfig
}

// StateStoreConfig configures the state store
type StateStoreConfig struct {
	Type       string
	SQLitePath string
}

// CatalogConfig configures the endoflife.date gateway and the name tables
type CatalogConfig struct {
	BaseURL  string
	Timeout  time.Duration
	OSTable  catalog.Table
	AppTable catalog.Table
}

// EstimationConfig configures the estimation tiers. An empty OllamaHost
// disables the model tier.
type EstimationConfig struct {
	OllamaHost string
	Model      string
	Timeout    time.Duration
	Heuristic  estimator.Heuristic
}

// AnalysisConfig configures analysis runs
type AnalysisConfig struct {
	OSFallback string
	Interval   time.Duration // Zero disables scheduled runs
	OnStartup  bool
}

// AlertsConfig configures the alert policy and the alert list size
type AlertsConfig struct {
	Policy policy.PolicyConfig
	Limit  int
}

// APIConfig configures the HTTP API server
type APIConfig struct {
	Enabled  bool
	Port     int
	APIKey   string
	ReadOnly bool
}

// ObservabilityConfig configures logging and metrics
type ObservabilityConfig struct {
	LogLevel        string
	MetricsPort     int
	HealthCheckPort int
}

// FileConfig is the layout of eoltrack.yml
type FileConfig struct {
	Catalog    CatalogFile             `yaml:"catalog"`
	Heuristics []estimator.KeywordTier `yaml:"heuristics,omitempty"`
	Alerts     AlertsFile              `yaml:"alerts"`
	Analysis   AnalysisFile            `yaml:"analysis"`
}

// CatalogFile holds name table overrides. Entries are evaluated before the
// built-in table unless ReplaceDefaults is set.
type CatalogFile struct {
	ReplaceDefaults bool          `yaml:"replace_defaults,omitempty"`
	OS              catalog.Table `yaml:"os,omitempty"`
	Applications    catalog.Table `yaml:"applications,omitempty"`
}

// AlertsFile configures the CEL alert policy
type AlertsFile struct {
	Expression string `yaml:"expression,omitempty"`
	Message    string `yaml:"message,omitempty"`
	Limit      int    `yaml:"limit,omitempty"`
}

// AnalysisFile holds analysis defaults; environment variables win
type AnalysisFile struct {
	Interval   string `yaml:"interval,omitempty"`
	OSFallback string `yaml:"os_fallback,omitempty"`
}
