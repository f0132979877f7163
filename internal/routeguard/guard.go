// Package routeguard classifies request paths and decides, per request,
// whether to pass traffic through or redirect it to sign-in. It runs at the
// edge in front of page handlers and must stay cheap and deterministic.
package routeguard

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/ecrec/storefront-auth/internal/observability/statsd"
	"github.com/ecrec/storefront-auth/internal/ports"
	"github.com/ecrec/storefront-auth/internal/tokenstore"
)

// SignInPath is where unauthenticated protected-route traffic is sent.
const SignInPath = "/auth/signin"

// Classification buckets a path for guarding purposes.
type Classification int

const (
	// Unclassified paths are neither protected nor public; they pass
	// through untouched.
	Unclassified Classification = iota
	// Public paths never require a credential.
	Public
	// Protected paths require a currently valid credential.
	Protected
)

func (c Classification) String() string {
	switch c {
	case Public:
		return "public"
	case Protected:
		return "protected"
	default:
		return "unclassified"
	}
}

// protectedPrefixes require a valid credential for the prefix and everything
// under it.
var protectedPrefixes = []string{
	"/profile",
	"/cart",
	"/orders",
	"/checkout",
	"/settings",
}

// publicPrefixes never require a credential. The root path is special-cased
// in Classify because every path begins with "/".
var publicPrefixes = []string{
	"/auth/signin",
	"/auth/signup",
	"/products",
	"/categories",
	"/search",
	"/about",
	"/help",
	"/terms",
	"/privacy",
}

// Classify buckets a request path. Protected wins over public if a path ever
// matched both; unknown paths are Unclassified and pass through, which keeps
// new pages reachable before anyone remembers to classify them.
func Classify(path string) Classification {
	for _, prefix := range protectedPrefixes {
		if matchesPrefix(path, prefix) {
			return Protected
		}
	}
	if path == "/" {
		return Public
	}
	for _, prefix := range publicPrefixes {
		if matchesPrefix(path, prefix) {
			return Public
		}
	}
	return Unclassified
}

// matchesPrefix reports whether path is prefix itself or a descendant of it.
// "/cartoon" must not match "/cart".
func matchesPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || rest[0] == '/' || rest[0] == '?'
}

// Decision is the outcome of guarding one request.
type Decision struct {
	// Allow is true when the request should proceed to its handler.
	Allow bool
	// RedirectURL is set when the request must be redirected instead.
	RedirectURL string
}

// Options groups dependencies for Guard.
type Options struct {
	Validator ports.TokenValidator
	Logger    *slog.Logger
	Metrics   statsd.Sink

	// SkipAuth disables credential checks entirely. Development only.
	SkipAuth bool
}

// Guard makes per-request allow/redirect decisions. Concurrent validations
// of the same token are coalesced into one upstream call.
type Guard struct {
	validator ports.TokenValidator
	logger    *slog.Logger
	metrics   statsd.Sink
	skipAuth  bool
	group     singleflight.Group
}

// New constructs a route guard.
func New(opts Options) *Guard {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		validator: opts.Validator,
		logger:    logger,
		metrics:   opts.Metrics,
		skipAuth:  opts.SkipAuth,
	}
}

// Decide evaluates one request. Protected paths demand a valid token: absent
// or invalid credentials redirect to sign-in with the original path carried
// in the redirect query parameter. Public and unclassified paths always pass.
func (g *Guard) Decide(ctx context.Context, path, token string) Decision {
	class := Classify(path)
	if class != Protected {
		return Decision{Allow: true}
	}

	if g.skipAuth {
		return Decision{Allow: true}
	}

	if token == "" {
		g.count("guard.redirect", class)
		return Decision{RedirectURL: redirectURL(path)}
	}

	if !g.validate(ctx, token) {
		g.count("guard.redirect", class)
		return Decision{RedirectURL: redirectURL(path)}
	}

	g.count("guard.allow", class)
	return Decision{Allow: true}
}

// validate asks the auth service about the token, coalescing concurrent
// lookups of the same token. A service failure counts as invalid: protected
// content is never served on an unverifiable credential.
func (g *Guard) validate(ctx context.Context, token string) bool {
	result, err, _ := g.group.Do(token, func() (any, error) {
		// The shared call may be serving coalesced waiters from other
		// requests, so it must not die with the first caller's context.
		v, err := g.validator.ValidateToken(context.WithoutCancel(ctx), token)
		if err != nil {
			return false, err
		}
		return v.Valid, nil
	})
	if err != nil {
		g.logger.WarnContext(ctx, "token validation failed", "error", err)
		return false
	}
	valid, ok := result.(bool)
	return ok && valid
}

// redirectURL builds the sign-in redirect carrying the originally requested
// path so the flow can resume after authentication.
func redirectURL(path string) string {
	return SignInPath + "?redirect=" + url.QueryEscape(path)
}

// TokenFromRequest extracts the access token from a request: the
// Authorization bearer header wins, then the access-token cookie.
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")); token != "" {
			return token
		}
	}
	if c, err := r.Cookie(tokenstore.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Middleware wraps an http.Handler with the guard decision. Redirects use
// 307 so method and body survive the round trip back through sign-in.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := g.Decide(r.Context(), r.URL.Path, TokenFromRequest(r))
		if !decision.Allow {
			http.Redirect(w, r, decision.RedirectURL, http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Guard) count(name string, class Classification) {
	if g.metrics != nil {
		g.metrics.Count(name, 1, map[string]string{"class": class.String()})
	}
}
