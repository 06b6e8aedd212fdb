package shared

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	ProviderModeFixture = "fixture"
	ProviderModeAPI     = "api"
	ProviderModeScrape  = "scrape"
)

// UnifiedConfiguration holds every tunable of the service.
type UnifiedConfiguration struct {
	Provider ProviderConfig `json:"provider"`
	Database DatabaseConfig `json:"database"`
	Cache    CacheConfig    `json:"cache"`
	Logging  LoggingConfig  `json:"logging"`
}

// ProviderConfig selects and tunes the vehicle data provider.
type ProviderConfig struct {
	Mode               string        `json:"mode"`
	BaseURL            string        `json:"base_url"`
	APIKey             string        `json:"-"`
	HTTPRequestTimeout time.Duration `json:"http_timeout"`
	RequestRateLimit   time.Duration `json:"rate_limit"`
	MaxRetryAttempts   int           `json:"max_retries"`
	RenderJavaScript   bool          `json:"render_javascript"`
	MaxFailureRate     float64       `json:"max_failure_rate"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	PingTimeout     time.Duration `json:"ping_timeout"`
	MaxRetries      int           `json:"max_retries"`
	SlowQuery       time.Duration `json:"slow_query"`
}

// CacheConfig covers both cache tiers and the analysis reuse window.
type CacheConfig struct {
	DefaultTTL      time.Duration `json:"default_ttl"`
	MaxSize         int           `json:"max_size"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
	ReuseWindow     time.Duration `json:"reuse_window"`
}

type LoggingConfig struct {
	Level       string `json:"level"`
	Format      string `json:"format"`
	ServiceName string `json:"service_name"`
}

func NewDefaultUnifiedConfiguration() *UnifiedConfiguration {
	c := &UnifiedConfiguration{}
	c.ValidateAndApplyDefaults()
	return c
}

// ValidateAndApplyDefaults replaces missing or invalid values with defaults.
func (c *UnifiedConfiguration) ValidateAndApplyDefaults() {
	logger := logrus.WithField("component", "UnifiedConfiguration")

	switch c.Provider.Mode {
	case ProviderModeFixture, ProviderModeAPI, ProviderModeScrape:
	default:
		if c.Provider.Mode != "" {
			logger.WithField("mode", c.Provider.Mode).Warn("Unknown provider mode, falling back to fixture")
		}
		c.Provider.Mode = ProviderModeFixture
	}
	if c.Provider.Mode != ProviderModeFixture && c.Provider.BaseURL == "" {
		logger.WithField("mode", c.Provider.Mode).Warn("Provider base URL missing, falling back to fixture")
		c.Provider.Mode = ProviderModeFixture
	}
	if c.Provider.HTTPRequestTimeout <= 0 {
		c.Provider.HTTPRequestTimeout = 15 * time.Second
	}
	if c.Provider.RequestRateLimit < 0 {
		c.Provider.RequestRateLimit = 0
	}
	if c.Provider.MaxRetryAttempts < 0 {
		c.Provider.MaxRetryAttempts = 2
	}
	if c.Provider.MaxFailureRate == 0 || c.Provider.MaxFailureRate > 1 {
		c.Provider.MaxFailureRate = 0.5
	}

	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime <= 0 {
		c.Database.ConnMaxLifetime = 5 * time.Minute
	}
	if c.Database.ConnMaxIdleTime <= 0 {
		c.Database.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.Database.PingTimeout <= 0 {
		c.Database.PingTimeout = 5 * time.Second
	}
	if c.Database.MaxRetries <= 0 {
		c.Database.MaxRetries = 3
	}
	if c.Database.SlowQuery <= 0 {
		c.Database.SlowQuery = 500 * time.Millisecond
	}

	if c.Cache.DefaultTTL <= 0 {
		c.Cache.DefaultTTL = time.Hour
	}
	if c.Cache.MaxSize <= 0 {
		c.Cache.MaxSize = 10000
	}
	if c.Cache.CleanupInterval <= 0 {
		c.Cache.CleanupInterval = 5 * time.Minute
	}
	if c.Cache.ReuseWindow <= 0 {
		c.Cache.ReuseWindow = 24 * time.Hour
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = "carcheck-backend"
	}
}

func (c *UnifiedConfiguration) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

func (c *UnifiedConfiguration) LoadFromJSON(jsonData []byte) error {
	if err := json.Unmarshal(jsonData, c); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	c.ValidateAndApplyDefaults()
	return nil
}

// ConfigureLogging applies the logging section to the global logrus logger.
func ConfigureLogging(cfg LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.WithField("level", cfg.Level).Warn("Invalid log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.Format, "text") {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
}
