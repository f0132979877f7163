// Package authapi is the typed HTTP client for the external auth service.
// It normalizes success/error shapes and never retries; retry policy belongs
// to callers.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-webauthn/webauthn/protocol"

	domainauth "github.com/ecrec/storefront-auth/internal/domain/auth"
	apperrors "github.com/ecrec/storefront-auth/internal/errors"
	"github.com/ecrec/storefront-auth/internal/ports"
)

const defaultTimeout = 15 * time.Second

// Client implements ports.AuthAPI over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ ports.AuthAPI = (*Client)(nil)

// Options groups construction parameters for the client.
type Options struct {
	// BaseURL is the auth service origin, e.g. "http://localhost:8080".
	BaseURL string
	// HTTPClient is optional; a client with a 15s timeout is used by default.
	HTTPClient *http.Client
}

// NewClient constructs an auth service client.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
	}
}

// apiError is the wire shape of a non-2xx response body.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SignUp forwards the registration request. It never authenticates.
func (c *Client) SignUp(ctx context.Context, in ports.SignUpInput) error {
	body := map[string]string{"email": in.Email, "password": in.Password}
	if in.Name != "" {
		body["name"] = in.Name
	}
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/signup", body: body}, nil)
}

// SignIn exchanges email/password for a token bundle and user snapshot.
func (c *Client) SignIn(ctx context.Context, in ports.SignInInput) (domainauth.AuthResponse, error) {
	var out domainauth.AuthResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/signin",
		body:   map[string]string{"email": in.Email, "password": in.Password},
	}, &out)
	if err != nil {
		return domainauth.AuthResponse{}, err
	}
	return out, nil
}

// ConfirmSignUp forwards the out-of-band confirmation code.
func (c *Client) ConfirmSignUp(ctx context.Context, in ports.ConfirmSignUpInput) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/confirm",
		body:   map[string]string{"email": in.Email, "confirmationCode": in.ConfirmationCode},
	}, nil)
}

// RefreshToken exchanges a refresh token for a fresh bundle.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (domainauth.AuthResponse, error) {
	var out domainauth.AuthResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/refresh",
		body:   map[string]string{"refreshToken": refreshToken},
	}, &out)
	if err != nil {
		return domainauth.AuthResponse{}, err
	}
	return out, nil
}

// ValidateToken asks the auth service whether a token is currently valid.
func (c *Client) ValidateToken(ctx context.Context, token string) (domainauth.TokenValidation, error) {
	var out domainauth.TokenValidation
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/validate",
		bearer: token,
	}, &out)
	if err != nil {
		return domainauth.TokenValidation{}, err
	}
	return out, nil
}

// CurrentUser fetches the user snapshot for a token.
func (c *Client) CurrentUser(ctx context.Context, token string) (domainauth.User, error) {
	var out domainauth.User
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/user",
		bearer: token,
	}, &out)
	if err != nil {
		return domainauth.User{}, err
	}
	return out, nil
}

// PasskeyRegisterBegin requests a registration challenge for a user.
func (c *Client) PasskeyRegisterBegin(ctx context.Context, in ports.PasskeyRegisterBeginInput) (domainauth.PasskeyChallenge, error) {
	var out domainauth.PasskeyChallenge
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/passkey/register/begin",
		body:   map[string]string{"userId": in.UserID, "userName": in.UserName},
	}, &out)
	if err != nil {
		return domainauth.PasskeyChallenge{}, err
	}
	return out, nil
}

// PasskeyRegisterComplete sends the attestation back to the server.
func (c *Client) PasskeyRegisterComplete(ctx context.Context, in ports.PasskeyRegisterCompleteInput) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/passkey/register/complete",
		body:   map[string]any{"userId": in.UserID, "credential": in.Credential},
	}, nil)
}

// PasskeyAuthenticateBegin requests an authentication challenge.
func (c *Client) PasskeyAuthenticateBegin(ctx context.Context) (domainauth.PasskeyChallenge, error) {
	var out domainauth.PasskeyChallenge
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/passkey/authenticate/begin",
		body:   map[string]any{},
	}, &out)
	if err != nil {
		return domainauth.PasskeyChallenge{}, err
	}
	return out, nil
}

// PasskeyAuthenticateComplete sends the assertion and receives the signed-in
// user with a token bundle.
func (c *Client) PasskeyAuthenticateComplete(ctx context.Context, credential *protocol.CredentialAssertionResponse) (domainauth.PasskeySignIn, error) {
	var out domainauth.PasskeySignIn
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/passkey/authenticate/complete",
		body:   map[string]any{"credential": credential},
	}, &out)
	if err != nil {
		return domainauth.PasskeySignIn{}, err
	}
	return out, nil
}

// request groups per-call parameters for do.
type request struct {
	method string
	path   string
	body   any
	bearer string
}

// do issues exactly one request. Non-2xx responses are normalized into an
// AppError carrying the service's machine-readable code; unparseable bodies
// fall back to the generic network_error code. A 204 is a valid empty
// success.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var payload io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode request body")
		}
		payload = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, payload)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.bearer)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeNetwork, "auth service request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.normalizeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeNetwork, "decode response body")
	}
	return nil
}

// normalizeError maps a non-2xx response into the application error
// taxonomy. The body is expected to be {error, message}; anything else
// degrades to network_error with an HTTP status message, mirroring how the
// storefront treated unparseable failures.
func (c *Client) normalizeError(resp *http.Response) error {
	var wire apiError
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil || wire.Error == "" {
		return apperrors.Networkf("HTTP error! status: %d", resp.StatusCode)
	}

	message := wire.Message
	if message == "" {
		message = wire.Error
	}

	return &apperrors.AppError{
		Code:    codeFor(wire, resp.StatusCode),
		Message: message,
	}
}

// codeFor translates auth-service error codes into the local taxonomy.
func codeFor(wire apiError, status int) apperrors.ErrorCode {
	switch wire.Error {
	case "signin_failed", "invalid_credentials":
		return apperrors.ErrCodeInvalidCredentials
	case "invalid_token", "missing_token", "refresh_failed":
		return apperrors.ErrCodeTokenInvalid
	case "user_exists", "duplicate_account":
		return apperrors.ErrCodeDuplicateAccount
	case "signup_failed":
		// The service folds duplicate-account rejections into signup_failed;
		// the message is the only discriminator it gives us.
		if strings.Contains(strings.ToLower(wire.Message), "exist") {
			return apperrors.ErrCodeDuplicateAccount
		}
		return apperrors.ErrCodeValidation
	case "invalid_request", "missing_fields", "confirmation_failed":
		return apperrors.ErrCodeValidation
	}
	if status == http.StatusUnauthorized {
		return apperrors.ErrCodeInvalidCredentials
	}
	return apperrors.ErrCodeNetwork
}
