package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Auth service and passkey configuration
//   - http.go: HTTP server configuration
//   - redis.go: Token store backend configuration
type AppConfig struct {
	// IsDev controls development mode behavior. Set DEV=true or
	// NODE_ENV=development for development mode. Skip-auth is only
	// honored in development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Auth service and passkey configuration
	Auth AuthConfig

	// Redis configuration for the durable token surface
	Redis RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.detectDevMode()

	c.Auth.Sanitize(c.IsDev)
	c.HTTP.Sanitize()
	c.Observability.Sanitize()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (the storefront it fronts is Node-based).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
