package service

import (
	"context"
	"log/slog"
	"sync"

	domainauth "github.com/ecrec/storefront-auth/internal/domain/auth"
	apperrors "github.com/ecrec/storefront-auth/internal/errors"
	"github.com/ecrec/storefront-auth/internal/observability/statsd"
	"github.com/ecrec/storefront-auth/internal/ports"
)

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	API    ports.AuthAPI
	Tokens ports.TokenStore
	Logger *slog.Logger
	// Metrics is optional; counters are dropped when nil.
	Metrics statsd.Sink

	// DevUser, when non-nil, short-circuits authentication entirely:
	// CheckAuth resolves this user without touching the network and SignIn
	// and SignUp succeed vacuously. For local development only.
	DevUser *domainauth.User
}

// SessionManager owns the single per-client Session value and reconciles it
// from the token store and the auth service. All mutating operations are
// serialized: the last caller to finish determines the session value, and no
// two operations interleave against it.
type SessionManager struct {
	api     ports.AuthAPI
	tokens  ports.TokenStore
	logger  *slog.Logger
	metrics statsd.Sink
	devUser *domainauth.User

	mu      sync.Mutex
	session domainauth.Session
}

// NewSessionManager constructs a manager in the initial loading state. Call
// CheckAuth to perform the first reconciliation.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		api:     opts.API,
		tokens:  opts.Tokens,
		logger:  logger,
		metrics: opts.Metrics,
		devUser: opts.DevUser,
		session: domainauth.Session{IsLoading: true},
	}
}

// Session returns a copy of the current session value.
func (m *SessionManager) Session() domainauth.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// CheckAuth reconciles the session from the token store and the auth
// service. It has no error surface: every failure mode degrades to the
// unauthenticated state, and an invalid stored token is cleared rather than
// silently retried.
func (m *SessionManager) CheckAuth(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkAuthLocked(ctx)
}

// RefreshSession re-runs reconciliation. Callers use it after any side
// channel that changes credentials, such as a passkey sign-in completing.
func (m *SessionManager) RefreshSession(ctx context.Context) {
	m.CheckAuth(ctx)
}

// SignIn authenticates with email and password. On success the full token
// bundle is persisted to both surfaces and the session is reconciled through
// CheckAuth, which stays the single source of truth for "am I logged in".
func (m *SessionManager) SignIn(ctx context.Context, email, password string) (domainauth.AuthResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.devUser != nil {
		m.checkAuthLocked(ctx)
		return domainauth.AuthResponse{User: *m.devUser}, nil
	}

	m.session.IsLoading = true
	defer func() { m.session.IsLoading = false }()

	resp, err := m.api.SignIn(ctx, ports.SignInInput{Email: email, Password: password})
	if err != nil {
		if apperrors.IsInvalidCredentials(err) {
			return domainauth.AuthResponse{}, err
		}
		return domainauth.AuthResponse{}, apperrors.Wrap(err, apperrors.ErrCodeNetwork, "sign in")
	}

	if err := m.tokens.Save(ctx, resp.TokenBundle); err != nil {
		return domainauth.AuthResponse{}, err
	}

	m.count("auth.signin")
	m.checkAuthLocked(ctx)
	return resp, nil
}

// SignUp forwards the registration request. It never authenticates; the
// follow-up confirmation step is an external concern.
func (m *SessionManager) SignUp(ctx context.Context, email, password, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.devUser != nil {
		return nil
	}

	m.session.IsLoading = true
	defer func() { m.session.IsLoading = false }()

	if err := m.api.SignUp(ctx, ports.SignUpInput{Email: email, Password: password, Name: name}); err != nil {
		if apperrors.IsValidation(err) || apperrors.IsDuplicateAccount(err) {
			return err
		}
		return apperrors.Wrap(err, apperrors.ErrCodeNetwork, "sign up")
	}
	m.count("auth.signup")
	return nil
}

// SignOut clears both token surfaces and resets the session. It never fails:
// a storage-clear error is logged and the state is reset to unauthenticated
// anyway, preferring denied access over stale credentials.
func (m *SessionManager) SignOut(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.tokens.Clear(ctx); err != nil {
		m.logger.WarnContext(ctx, "clearing tokens on sign-out failed", "error", err)
	}
	m.count("auth.signout")
	m.session = domainauth.Session{}
}

// checkAuthLocked is the reconciliation body. Callers hold m.mu.
func (m *SessionManager) checkAuthLocked(ctx context.Context) {
	if m.devUser != nil {
		user := *m.devUser
		m.session = domainauth.Session{User: &user, IsAuthenticated: true}
		return
	}

	bundle, ok, err := m.tokens.Load(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "loading tokens failed", "error", err)
		m.session = domainauth.Session{}
		return
	}
	if !ok {
		m.session = domainauth.Session{}
		return
	}

	info, err := m.api.CurrentUser(ctx, bundle.AccessToken)
	if err != nil {
		// The stored token was rejected or unverifiable. Clear it so it is
		// never retried silently.
		m.logger.InfoContext(ctx, "session reconciliation failed, clearing tokens",
			"code", apperrors.GetCode(err), "error", err)
		if clearErr := m.tokens.Clear(ctx); clearErr != nil {
			m.logger.WarnContext(ctx, "clearing rejected tokens failed", "error", clearErr)
		}
		m.session = domainauth.Session{}
		return
	}

	user := mapUser(info)
	m.session = domainauth.Session{User: &user, IsAuthenticated: true}
}

// mapUser normalizes the auth service's user shape. DisplayName defaults to
// the name attribute, then the email.
func mapUser(info domainauth.User) domainauth.User {
	user := info
	if user.DisplayName == "" {
		user.DisplayName = user.Attributes["name"]
	}
	if user.DisplayName == "" {
		user.DisplayName = user.Email
	}
	return user
}

func (m *SessionManager) count(name string) {
	if m.metrics != nil {
		m.metrics.Count(name, 1, nil)
	}
}
