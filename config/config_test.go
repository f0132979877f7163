package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseConfig(t *testing.T) AppConfig {
	t.Helper()
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := parseConfig(t)

	assert.False(t, cfg.IsDev)
	assert.Equal(t, "http://localhost:8080", cfg.Auth.ServiceURL)
	assert.Equal(t, 15*time.Second, cfg.Auth.Timeout)
	assert.False(t, cfg.Auth.SkipAuth)
	assert.Equal(t, "localhost", cfg.Auth.Passkey.RPID)
	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.Equal(t, "localhost:6379", cfg.Redis.URI)
	assert.False(t, cfg.Observability.Metrics.IsEnabled())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AUTH_SERVICE_URL", "https://auth.example.com/")
	t.Setenv("AUTH_TIMEOUT", "5s")
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("REDIS_URI", "redis://cache.internal:6380")
	t.Setenv("PASSKEY_RP_ID", "shop.example.com")
	t.Setenv("PASSKEY_RP_NAME", "Example Shop")

	cfg := parseConfig(t)

	// Trailing slash is stripped so path joining stays predictable.
	assert.Equal(t, "https://auth.example.com", cfg.Auth.ServiceURL)
	assert.Equal(t, 5*time.Second, cfg.Auth.Timeout)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "redis://cache.internal:6380", cfg.Redis.URI)
	assert.Equal(t, "shop.example.com", cfg.Auth.Passkey.RPID)
	assert.Equal(t, "Example Shop", cfg.Auth.Passkey.RPName)
}

func TestSkipAuthForcedOffInProduction(t *testing.T) {
	t.Setenv("AUTH_SKIP", "true")

	cfg := parseConfig(t)
	assert.False(t, cfg.Auth.SkipAuth, "skip-auth must not survive outside dev mode")
}

func TestSkipAuthHonoredInDev(t *testing.T) {
	t.Setenv("DEV", "true")
	t.Setenv("AUTH_SKIP", "true")

	cfg := parseConfig(t)
	assert.True(t, cfg.IsDev)
	assert.True(t, cfg.Auth.SkipAuth)
}

func TestNodeEnvFallback(t *testing.T) {
	t.Setenv("NODE_ENV", "development")

	cfg := parseConfig(t)
	assert.True(t, cfg.IsDev)
}

func TestDevAuthDefaults(t *testing.T) {
	cfg := parseConfig(t)

	assert.Equal(t, "dev-user", cfg.Auth.DevAuth.UserID)
	assert.Equal(t, "dev@example.com", cfg.Auth.DevAuth.Email)
	assert.Equal(t, "Dev User", cfg.Auth.DevAuth.Name)
}

func TestMetricsDisabledWithoutAddress(t *testing.T) {
	t.Setenv("OBSERVABILITY_METRICS_ENABLED", "true")
	t.Setenv("OBSERVABILITY_METRICS_STATSD_ADDRESS", "   ")

	cfg := parseConfig(t)
	assert.False(t, cfg.Observability.Metrics.IsEnabled())
}
