package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/carcheck/carcheck-backend/shared"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "DATABASE_URL", "REDIS_URL", "CACHE_TTL_MINUTES", "ANALYSIS_REUSE_HOURS", "PROVIDER_MODE"} {
		t.Setenv(key, "")
	}
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("CACHE_TTL_MINUTES", "60")
	t.Setenv("ANALYSIS_REUSE_HOURS", "24")
	t.Setenv("PROVIDER_MODE", "fixture")

	cfg := LoadConfig()
	unified := cfg.Unified()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, time.Hour, unified.Cache.DefaultTTL)
	assert.Equal(t, 24*time.Hour, unified.Cache.ReuseWindow)
	assert.Equal(t, shared.ProviderModeFixture, unified.Provider.Mode)
}

func TestUnifiedParsesEnvironment(t *testing.T) {
	t.Setenv("CACHE_TTL_MINUTES", "30")
	t.Setenv("ANALYSIS_REUSE_HOURS", "12")
	t.Setenv("PROVIDER_MODE", "api")
	t.Setenv("PROVIDER_BASE_URL", "https://vehicles.example.test")
	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "5")
	t.Setenv("PROVIDER_RATE_LIMIT_MS", "250")
	t.Setenv("PROVIDER_RENDER_JS", "true")
	t.Setenv("LOG_FORMAT", "text")

	unified := LoadConfig().Unified()

	assert.Equal(t, 30*time.Minute, unified.Cache.DefaultTTL)
	assert.Equal(t, 12*time.Hour, unified.Cache.ReuseWindow)
	assert.Equal(t, shared.ProviderModeAPI, unified.Provider.Mode)
	assert.Equal(t, 5*time.Second, unified.Provider.HTTPRequestTimeout)
	assert.Equal(t, 250*time.Millisecond, unified.Provider.RequestRateLimit)
	assert.True(t, unified.Provider.RenderJavaScript)
	assert.Equal(t, "text", unified.Logging.Format)
}

func TestInvalidValuesFallBack(t *testing.T) {
	cfg := &Config{
		CacheTTLMinutes:    "soon",
		AnalysisReuseHours: "-",
		ProviderMode:       "api",
		ProviderRenderJS:   "maybe",
	}

	unified := cfg.Unified()

	assert.Equal(t, time.Hour, unified.Cache.DefaultTTL)
	assert.Equal(t, 24*time.Hour, unified.Cache.ReuseWindow)
	// api mode without a base URL cannot work
	assert.Equal(t, shared.ProviderModeFixture, unified.Provider.Mode)
	assert.False(t, unified.Provider.RenderJavaScript)
}
