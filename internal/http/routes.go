package httpx

import (
	"log/slog"
	"net/http"

	"github.com/ecrec/storefront-auth/internal/observability/statsd"
	"github.com/ecrec/storefront-auth/internal/routeguard"
)

// RouterOptions groups dependencies for NewRouter.
type RouterOptions struct {
	Auth    *AuthHandler
	Guard   *routeguard.Guard
	Logger  *slog.Logger
	Metrics statsd.Sink
	// Pages serves everything that is not an auth endpoint. The guard wraps
	// it; auth endpoints and the health check bypass the guard.
	Pages http.Handler
}

// NewRouter assembles the full handler chain: recover and request logging on
// the outside, the route guard in front of page traffic only.
func NewRouter(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signin", opts.Auth.SignIn)
	mux.HandleFunc("POST /auth/signup", opts.Auth.SignUp)
	mux.HandleFunc("POST /auth/confirm", opts.Auth.Confirm)
	mux.HandleFunc("POST /auth/signout", opts.Auth.SignOut)
	mux.HandleFunc("POST /auth/refresh", opts.Auth.Refresh)
	mux.HandleFunc("GET /auth/session", opts.Auth.Session)
	mux.HandleFunc("POST /auth/passkey/register", opts.Auth.PasskeyRegister)
	mux.HandleFunc("POST /auth/passkey/signin", opts.Auth.PasskeySignIn)
	mux.HandleFunc("GET /healthz", opts.Auth.Health)

	pages := opts.Pages
	if pages == nil {
		pages = http.NotFoundHandler()
	}
	mux.Handle("/", opts.Guard.Middleware(pages))

	return Chain(mux, Recover(logger), Logging(logger, opts.Metrics))
}
