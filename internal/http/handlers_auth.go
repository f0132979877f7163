package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/ecrec/storefront-auth/internal/domain/auth"
	apperrors "github.com/ecrec/storefront-auth/internal/errors"
	"github.com/ecrec/storefront-auth/internal/observability/statsd"
	"github.com/ecrec/storefront-auth/internal/ports"
	"github.com/ecrec/storefront-auth/internal/routeguard"
	"github.com/ecrec/storefront-auth/internal/service"
	"github.com/ecrec/storefront-auth/internal/tokenstore"
)

// BackendFactory returns the durable token surface for one client identity.
type BackendFactory func(clientID string) tokenstore.Backend

// AuthHandler serves the authentication endpoints. Session state is
// per-client: each request builds a token store bound to the caller's client
// identity and an HTTP cookie mirror bound to the request/response pair.
type AuthHandler struct {
	api          ports.AuthAPI
	backend      BackendFactory
	ceremony     *service.PasskeyCeremony
	logger       *slog.Logger
	metrics      statsd.Sink
	cookieDomain string
	devUser      *domainauth.User
}

// AuthHandlerOptions groups dependencies for NewAuthHandler.
type AuthHandlerOptions struct {
	API          ports.AuthAPI
	Backend      BackendFactory
	Ceremony     *service.PasskeyCeremony
	Logger       *slog.Logger
	Metrics      statsd.Sink
	CookieDomain string
	DevUser      *domainauth.User
}

// NewAuthHandler constructs the auth endpoint handler.
func NewAuthHandler(opts AuthHandlerOptions) *AuthHandler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		api:          opts.API,
		backend:      opts.Backend,
		ceremony:     opts.Ceremony,
		logger:       logger,
		metrics:      opts.Metrics,
		cookieDomain: opts.CookieDomain,
		devUser:      opts.DevUser,
	}
}

// tokenStore builds the per-request dual-surface store: durable tokens keyed
// by the client cookie, access-token mirror on this response.
func (h *AuthHandler) tokenStore(w http.ResponseWriter, r *http.Request) *tokenstore.Store {
	id := clientID(w, r)
	return tokenstore.NewStore(tokenstore.Options{
		Durable: h.backend(id),
		Cookie:  &tokenstore.HTTPCookieMirror{W: w, R: r, Domain: h.cookieDomain},
		Logger:  h.logger,
	})
}

func (h *AuthHandler) sessionManager(store *tokenstore.Store) *service.SessionManager {
	return service.NewSessionManager(service.SessionManagerOptions{
		API:     h.api,
		Tokens:  store,
		Logger:  h.logger,
		Metrics: h.metrics,
		DevUser: h.devUser,
	})
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn handles POST /auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteAppError(w, apperrors.Validation("email and password are required"))
		return
	}

	mgr := h.sessionManager(h.tokenStore(w, r))
	if _, err := mgr.SignIn(r.Context(), req.Email, req.Password); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, mgr.Session())
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// SignUp handles POST /auth/signup. A successful registration does not
// authenticate; confirmation happens out of band.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteAppError(w, apperrors.Validation("email and password are required"))
		return
	}

	mgr := h.sessionManager(h.tokenStore(w, r))
	if err := mgr.SignUp(r.Context(), req.Email, req.Password, req.Name); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"status": "confirmation_required"})
}

type confirmRequest struct {
	Email            string `json:"email"`
	ConfirmationCode string `json:"confirmationCode"`
}

// Confirm handles POST /auth/confirm.
func (h *AuthHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.ConfirmationCode == "" {
		WriteAppError(w, apperrors.Validation("email and confirmation code are required"))
		return
	}

	err := h.api.ConfirmSignUp(r.Context(), ports.ConfirmSignUpInput{
		Email:            req.Email,
		ConfirmationCode: req.ConfirmationCode,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SignOut handles POST /auth/signout. It always succeeds.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	mgr := h.sessionManager(h.tokenStore(w, r))
	mgr.SignOut(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /auth/session: reconcile and return the snapshot.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	mgr := h.sessionManager(h.tokenStore(w, r))
	mgr.CheckAuth(r.Context())
	WriteJSON(w, http.StatusOK, mgr.Session())
}

// Refresh handles POST /auth/refresh: exchange the stored refresh token for a
// fresh bundle. Refresh is never invoked implicitly; this endpoint is the
// only trigger.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	store := h.tokenStore(w, r)

	bundle, ok, err := store.Load(r.Context())
	if err != nil || !ok || bundle.RefreshToken == "" {
		WriteAppError(w, apperrors.TokenInvalid("no refresh token"))
		return
	}

	resp, err := h.api.RefreshToken(r.Context(), bundle.RefreshToken)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if resp.RefreshToken == "" {
		// Some issuers omit the refresh token on rotation; keep the old one.
		resp.RefreshToken = bundle.RefreshToken
	}
	if err := store.Save(r.Context(), resp.TokenBundle); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user": resp.User})
}

// PasskeyRegister handles POST /auth/passkey/register. It requires an
// authenticated caller; the user identity comes from the presented token,
// never the request body.
func (h *AuthHandler) PasskeyRegister(w http.ResponseWriter, r *http.Request) {
	token := routeguard.TokenFromRequest(r)
	if token == "" {
		WriteAppError(w, apperrors.TokenInvalid("authentication required"))
		return
	}
	user, err := h.api.CurrentUser(r.Context(), token)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	if err := h.ceremony.Register(r.Context(), user); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PasskeySignIn handles POST /auth/passkey/signin: run the authentication
// ceremony, persist the issued tokens, and return the reconciled session.
func (h *AuthHandler) PasskeySignIn(w http.ResponseWriter, r *http.Request) {
	result, err := h.ceremony.Authenticate(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}

	store := h.tokenStore(w, r)
	if err := store.Save(r.Context(), result.Tokens); err != nil {
		WriteAppError(w, err)
		return
	}
	mgr := h.sessionManager(store)
	mgr.RefreshSession(r.Context())
	WriteJSON(w, http.StatusOK, mgr.Session())
}

// Health handles GET /healthz.
func (h *AuthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
