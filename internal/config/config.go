package config

import (
	"time"

	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

// Default configuration values.
const (
	defaultServiceName        = "funnel-analyzer"
	defaultServiceVersion     = "1.0.0"
	defaultServicePort        = 8090
	defaultConcurrency        = 8
	defaultLogLevel           = "info"
	defaultLogFormat          = "json"
	defaultMinEngagementSec   = 15
	defaultConversionEvent    = "sign_up_complete"
	defaultSignupPage         = "/signup"
	defaultAnalyticsRPS       = 10
	defaultAnalyticsTimeout   = 30 * time.Second
	defaultAnalyticsRowLimit  = 100000
	defaultDBDriver           = "sqlite3"
	defaultDBDSN              = "file:events.db?mode=ro"
	defaultESURL              = "http://localhost:9200"
	defaultESIndex            = "analytics_events"
	defaultESTimeout          = 30 * time.Second
	defaultReportOutputDir    = "output"
)

// Config holds all configuration for the funnel analyzer. Components receive
// it (or a sub-struct) by parameter; there is no implicit global instance.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Logging   LoggingConfig   `yaml:"logging"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"elasticsearch"`
	Funnel    FunnelConfig    `yaml:"funnel"`
	Reporting ReportingConfig `yaml:"reporting"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Port        int    `env:"FUNNEL_PORT"        yaml:"port"`
	Debug       bool   `env:"APP_DEBUG"          yaml:"debug"`
	Concurrency int    `env:"FUNNEL_CONCURRENCY" yaml:"concurrency"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// AnalyticsConfig holds the reporting-API client configuration.
type AnalyticsConfig struct {
	BaseURL    string        `env:"ANALYTICS_BASE_URL"    yaml:"base_url"`
	PropertyID string        `env:"ANALYTICS_PROPERTY_ID" yaml:"property_id"`
	Token      string        `env:"ANALYTICS_TOKEN"       yaml:"token"`
	RPS        int           `yaml:"rps"`
	Timeout    time.Duration `yaml:"timeout"`
	RowLimit   int           `yaml:"row_limit"`
}

// DatabaseConfig holds the SQL event-warehouse configuration. Driver is
// "postgres" or "sqlite3"; the DSN format follows the driver.
type DatabaseConfig struct {
	Driver string `env:"EVENTS_DB_DRIVER" yaml:"driver"`
	DSN    string `env:"EVENTS_DB_DSN"    yaml:"dsn"`
}

// SearchConfig holds the Elasticsearch event-index configuration.
type SearchConfig struct {
	URL      string        `env:"ELASTICSEARCH_URL" yaml:"url"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Index    string        `yaml:"index"`
	Timeout  time.Duration `yaml:"timeout"`
}

// FunnelConfig holds the stage rules and categorization pattern tables that
// drive classification and aggregation.
type FunnelConfig struct {
	// StageRules in fixed evaluation order. Order matters: exact-confidence
	// ties are resolved by the earlier rule.
	StageRules []domain.StageRule `yaml:"stage_rules"`

	// MinEngagementSec is the INTEREST engagement-duration threshold.
	MinEngagementSec int `env:"FUNNEL_MIN_ENGAGEMENT_SEC" yaml:"min_engagement_sec"`

	// ConversionEvent is the single event name marking funnel completion.
	ConversionEvent string `env:"FUNNEL_CONVERSION_EVENT" yaml:"conversion_event"`

	// SignupPage is the page whose views/engagement contribute partial
	// CONVERSION confidence.
	SignupPage string `yaml:"signup_page"`

	// PageCategories and TrafficGroups are ordered pattern tables; first
	// match wins, patterns are literal or "prefix*".
	PageCategories []CategoryPatterns `yaml:"page_categories"`
	TrafficGroups  []CategoryPatterns `yaml:"traffic_groups"`
}

// CategoryPatterns is one ordered pattern-table entry.
type CategoryPatterns struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// ReportingConfig holds report-generation settings.
type ReportingConfig struct {
	OutputDir string   `env:"REPORT_OUTPUT_DIR" yaml:"output_dir"`
	Formats   []string `env:"REPORT_FORMATS"    yaml:"formats"`
}

// Load reads the config file at path (missing file falls back to defaults)
// and applies env overrides. The returned config always has complete funnel
// rules and pattern tables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return cfg, nil
}

// setDefaults fills any zero-valued settings after YAML/env resolution.
func (c *Config) setDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = defaultServiceName
	}
	if c.Service.Version == "" {
		c.Service.Version = defaultServiceVersion
	}
	if c.Service.Port == 0 {
		c.Service.Port = defaultServicePort
	}
	if c.Service.Concurrency <= 0 {
		c.Service.Concurrency = defaultConcurrency
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Analytics.RPS <= 0 {
		c.Analytics.RPS = defaultAnalyticsRPS
	}
	if c.Analytics.Timeout <= 0 {
		c.Analytics.Timeout = defaultAnalyticsTimeout
	}
	if c.Analytics.RowLimit <= 0 {
		c.Analytics.RowLimit = defaultAnalyticsRowLimit
	}
	if c.Database.Driver == "" {
		c.Database.Driver = defaultDBDriver
	}
	if c.Database.DSN == "" {
		c.Database.DSN = defaultDBDSN
	}
	if c.Search.URL == "" {
		c.Search.URL = defaultESURL
	}
	if c.Search.Index == "" {
		c.Search.Index = defaultESIndex
	}
	if c.Search.Timeout <= 0 {
		c.Search.Timeout = defaultESTimeout
	}
	if c.Funnel.MinEngagementSec <= 0 {
		c.Funnel.MinEngagementSec = defaultMinEngagementSec
	}
	if c.Funnel.ConversionEvent == "" {
		c.Funnel.ConversionEvent = defaultConversionEvent
	}
	if c.Funnel.SignupPage == "" {
		c.Funnel.SignupPage = defaultSignupPage
	}
	if len(c.Funnel.StageRules) == 0 {
		c.Funnel.StageRules = DefaultStageRules()
	}
	if len(c.Funnel.PageCategories) == 0 {
		c.Funnel.PageCategories = DefaultPageCategories()
	}
	if len(c.Funnel.TrafficGroups) == 0 {
		c.Funnel.TrafficGroups = DefaultTrafficGroups()
	}
	if c.Reporting.OutputDir == "" {
		c.Reporting.OutputDir = defaultReportOutputDir
	}
	if len(c.Reporting.Formats) == 0 {
		c.Reporting.Formats = []string{"json", "csv", "summary"}
	}
}

// Default returns a config populated with every default value.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}
