package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/carcheck/carcheck-backend/shared"
)

type Config struct {
	ServerPort  string
	DatabaseURL string
	RedisURL    string

	CacheTTLMinutes    string
	CacheMaxSize       string
	AnalysisReuseHours string

	ProviderMode           string
	ProviderBaseURL        string
	ProviderAPIKey         string
	ProviderTimeoutSeconds string
	ProviderMaxRetries     string
	ProviderRateLimitMS    string
	ProviderRenderJS       string

	LogLevel  string
	LogFormat string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using system environment variables")
	}

	return &Config{
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		RedisURL:               getEnv("REDIS_URL", ""),
		CacheTTLMinutes:        getEnv("CACHE_TTL_MINUTES", "60"),
		CacheMaxSize:           getEnv("CACHE_MAX_SIZE", "10000"),
		AnalysisReuseHours:     getEnv("ANALYSIS_REUSE_HOURS", "24"),
		ProviderMode:           getEnv("PROVIDER_MODE", shared.ProviderModeFixture),
		ProviderBaseURL:        getEnv("PROVIDER_BASE_URL", ""),
		ProviderAPIKey:         getEnv("PROVIDER_API_KEY", ""),
		ProviderTimeoutSeconds: getEnv("PROVIDER_TIMEOUT_SECONDS", "15"),
		ProviderMaxRetries:     getEnv("PROVIDER_MAX_RETRIES", "2"),
		ProviderRateLimitMS:    getEnv("PROVIDER_RATE_LIMIT_MS", "0"),
		ProviderRenderJS:       getEnv("PROVIDER_RENDER_JS", "false"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "json"),
	}
}

// GetCacheTTL returns the vehicle and analysis cache TTL.
func (c *Config) GetCacheTTL() time.Duration {
	return time.Duration(parseInt("CACHE_TTL_MINUTES", c.CacheTTLMinutes, 60)) * time.Minute
}

// GetReuseWindow returns how long a persisted analysis is served without recomputation.
func (c *Config) GetReuseWindow() time.Duration {
	return time.Duration(parseInt("ANALYSIS_REUSE_HOURS", c.AnalysisReuseHours, 24)) * time.Hour
}

// Unified builds the validated service configuration.
func (c *Config) Unified() *shared.UnifiedConfiguration {
	renderJS, err := strconv.ParseBool(c.ProviderRenderJS)
	if err != nil {
		logrus.Warnf("Invalid PROVIDER_RENDER_JS value: %s, using false", c.ProviderRenderJS)
		renderJS = false
	}

	unified := &shared.UnifiedConfiguration{
		Provider: shared.ProviderConfig{
			Mode:               c.ProviderMode,
			BaseURL:            c.ProviderBaseURL,
			APIKey:             c.ProviderAPIKey,
			HTTPRequestTimeout: time.Duration(parseInt("PROVIDER_TIMEOUT_SECONDS", c.ProviderTimeoutSeconds, 15)) * time.Second,
			RequestRateLimit:   time.Duration(parseInt("PROVIDER_RATE_LIMIT_MS", c.ProviderRateLimitMS, 0)) * time.Millisecond,
			MaxRetryAttempts:   parseInt("PROVIDER_MAX_RETRIES", c.ProviderMaxRetries, 2),
			RenderJavaScript:   renderJS,
		},
		Cache: shared.CacheConfig{
			DefaultTTL:  c.GetCacheTTL(),
			MaxSize:     parseInt("CACHE_MAX_SIZE", c.CacheMaxSize, 10000),
			ReuseWindow: c.GetReuseWindow(),
		},
		Logging: shared.LoggingConfig{
			Level:  c.LogLevel,
			Format: c.LogFormat,
		},
	}
	unified.ValidateAndApplyDefaults()
	return unified
}

func parseInt(key, raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil {
		logrus.Warnf("Invalid %s value: %s, using default %d", key, raw, fallback)
		return fallback
	}
	return value
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
