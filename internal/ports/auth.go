// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/tokenstore;
// orchestration in internal/service.
package ports

import (
	"context"

	"github.com/go-webauthn/webauthn/protocol"

	domainauth "github.com/ecrec/storefront-auth/internal/domain/auth"
)

// SignUpInput carries inputs for the sign-up call. Name is optional.
type SignUpInput struct {
	Email    string
	Password string
	Name     string
}

// SignInInput carries inputs for the password sign-in call.
type SignInInput struct {
	Email    string
	Password string
}

// ConfirmSignUpInput carries inputs for the out-of-band sign-up confirmation.
type ConfirmSignUpInput struct {
	Email            string
	ConfirmationCode string
}

// PasskeyRegisterBeginInput identifies the user a registration challenge is for.
type PasskeyRegisterBeginInput struct {
	UserID   string
	UserName string
}

// PasskeyRegisterCompleteInput carries the attestation produced by the
// platform authenticator back to the server.
type PasskeyRegisterCompleteInput struct {
	UserID     string
	Credential *protocol.CredentialCreationResponse
}

// AuthAPI is the typed client contract for the external auth service.
// Each method issues exactly one request and never retries; retry policy,
// if any, belongs to the caller.
type AuthAPI interface {
	SignUp(ctx context.Context, in SignUpInput) error
	SignIn(ctx context.Context, in SignInInput) (domainauth.AuthResponse, error)
	ConfirmSignUp(ctx context.Context, in ConfirmSignUpInput) error
	RefreshToken(ctx context.Context, refreshToken string) (domainauth.AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (domainauth.TokenValidation, error)
	CurrentUser(ctx context.Context, token string) (domainauth.User, error)

	PasskeyRegisterBegin(ctx context.Context, in PasskeyRegisterBeginInput) (domainauth.PasskeyChallenge, error)
	PasskeyRegisterComplete(ctx context.Context, in PasskeyRegisterCompleteInput) error
	PasskeyAuthenticateBegin(ctx context.Context) (domainauth.PasskeyChallenge, error)
	PasskeyAuthenticateComplete(ctx context.Context, credential *protocol.CredentialAssertionResponse) (domainauth.PasskeySignIn, error)
}

// TokenValidator is the subset of AuthAPI the route guard needs.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (domainauth.TokenValidation, error)
}

// TokenStore persists the credential bundle across both storage surfaces
// (durable store and cookie mirror). Save and Clear always touch both; there
// is deliberately no partial-write API.
type TokenStore interface {
	Save(ctx context.Context, bundle domainauth.TokenBundle) error
	Load(ctx context.Context) (domainauth.TokenBundle, bool, error)
	Clear(ctx context.Context) error
}

// Authenticator is the platform (WebAuthn) authenticator the passkey ceremony
// delegates to. Create and Get block on user interaction and honor the
// timeout carried in the options.
type Authenticator interface {
	// Supported reports whether a platform authenticator is available.
	// No other method is valid to call when this returns false.
	Supported() bool
	Create(ctx context.Context, options protocol.PublicKeyCredentialCreationOptions) (*protocol.CredentialCreationResponse, error)
	Get(ctx context.Context, options protocol.PublicKeyCredentialRequestOptions) (*protocol.CredentialAssertionResponse, error)
}
