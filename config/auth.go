package config

import (
	"strings"
	"time"
)

// AuthConfig groups everything needed to talk to the external auth service
// and to run passkey ceremonies against it.
type AuthConfig struct {
	// ServiceURL is the auth service origin, e.g. "http://localhost:8080".
	ServiceURL string `env:"AUTH_SERVICE_URL" envDefault:"http://localhost:8080"`

	// Timeout bounds every single request to the auth service.
	Timeout time.Duration `env:"AUTH_TIMEOUT" envDefault:"15s"`

	// SkipAuth disables authentication entirely and resolves the DevAuth
	// identity instead. Ignored outside development mode.
	SkipAuth bool `env:"AUTH_SKIP" envDefault:"false"`

	// DevAuth is the identity used when SkipAuth is active.
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// Passkey identifies the relying party for WebAuthn ceremonies.
	Passkey PasskeyConfig `envPrefix:"PASSKEY_"`
}

// DevAuthConfig controls the mock development identity.
type DevAuthConfig struct {
	UserID string `env:"USER_ID" envDefault:"dev-user"`
	Email  string `env:"EMAIL"   envDefault:"dev@example.com"`
	Name   string `env:"NAME"    envDefault:"Dev User"`
}

// PasskeyConfig identifies the WebAuthn relying party.
type PasskeyConfig struct {
	RPID   string `env:"RP_ID"   envDefault:"localhost"`
	RPName string `env:"RP_NAME" envDefault:"Storefront"`
}

// Sanitize applies guardrails to auth configuration values. SkipAuth is
// forced off outside development mode: a production deploy with a stray
// AUTH_SKIP=true must not open every protected route.
func (a *AuthConfig) Sanitize(isDev bool) {
	a.ServiceURL = strings.TrimRight(strings.TrimSpace(a.ServiceURL), "/")
	if a.Timeout <= 0 {
		a.Timeout = 15 * time.Second
	}
	if !isDev {
		a.SkipAuth = false
	}
}
