// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"sync"

	"github.com/go-webauthn/webauthn/protocol"

	domainauth "github.com/ecrec/storefront-auth/internal/domain/auth"
	apperrors "github.com/ecrec/storefront-auth/internal/errors"
	"github.com/ecrec/storefront-auth/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthAPI       = (*MockAuthAPI)(nil)
	_ ports.Authenticator = (*MockAuthenticator)(nil)
)

// MockAuthAPI simulates the external auth service. Each method delegates to
// its corresponding Func when set; the defaults model a service with a single
// known account.
type MockAuthAPI struct {
	SignUpFunc        func(ctx context.Context, in ports.SignUpInput) error
	SignInFunc        func(ctx context.Context, in ports.SignInInput) (domainauth.AuthResponse, error)
	ConfirmFunc       func(ctx context.Context, in ports.ConfirmSignUpInput) error
	RefreshFunc       func(ctx context.Context, refreshToken string) (domainauth.AuthResponse, error)
	ValidateFunc      func(ctx context.Context, token string) (domainauth.TokenValidation, error)
	CurrentUserFunc   func(ctx context.Context, token string) (domainauth.User, error)
	RegisterBegin     func(ctx context.Context, in ports.PasskeyRegisterBeginInput) (domainauth.PasskeyChallenge, error)
	RegisterComplete  func(ctx context.Context, in ports.PasskeyRegisterCompleteInput) error
	AuthnBegin        func(ctx context.Context) (domainauth.PasskeyChallenge, error)
	AuthnComplete     func(ctx context.Context, credential *protocol.CredentialAssertionResponse) (domainauth.PasskeySignIn, error)

	// Deterministic values for predictable testing
	User        domainauth.User
	Tokens      domainauth.TokenBundle
	ValidTokens map[string]bool

	mu            sync.Mutex
	validateCalls int
}

// NewMockAuthAPI creates a MockAuthAPI with sensible defaults.
func NewMockAuthAPI() *MockAuthAPI {
	user := domainauth.User{
		ID:            "user-1",
		Email:         "shopper@example.com",
		EmailVerified: true,
		Attributes:    map[string]string{"name": "Test Shopper"},
	}
	tokens := domainauth.TokenBundle{
		AccessToken:  "access-1",
		IDToken:      "id-1",
		RefreshToken: "refresh-1",
	}
	return &MockAuthAPI{
		User:        user,
		Tokens:      tokens,
		ValidTokens: map[string]bool{tokens.AccessToken: true},
	}
}

// ValidateCalls reports how many times ValidateToken ran its default body.
func (m *MockAuthAPI) ValidateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validateCalls
}

func (m *MockAuthAPI) SignUp(ctx context.Context, in ports.SignUpInput) error {
	if m.SignUpFunc != nil {
		return m.SignUpFunc(ctx, in)
	}
	if in.Email == m.User.Email {
		return apperrors.DuplicateAccount("an account with this email already exists")
	}
	return nil
}

func (m *MockAuthAPI) SignIn(ctx context.Context, in ports.SignInInput) (domainauth.AuthResponse, error) {
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, in)
	}
	if in.Email != m.User.Email {
		return domainauth.AuthResponse{}, apperrors.InvalidCredentials("incorrect email or password")
	}
	return domainauth.AuthResponse{TokenBundle: m.Tokens, User: m.User}, nil
}

func (m *MockAuthAPI) ConfirmSignUp(ctx context.Context, in ports.ConfirmSignUpInput) error {
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, in)
	}
	return nil
}

func (m *MockAuthAPI) RefreshToken(ctx context.Context, refreshToken string) (domainauth.AuthResponse, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	if refreshToken != m.Tokens.RefreshToken {
		return domainauth.AuthResponse{}, apperrors.TokenInvalid("refresh token rejected")
	}
	return domainauth.AuthResponse{TokenBundle: m.Tokens, User: m.User}, nil
}

func (m *MockAuthAPI) ValidateToken(ctx context.Context, token string) (domainauth.TokenValidation, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, token)
	}
	m.mu.Lock()
	m.validateCalls++
	m.mu.Unlock()
	if m.ValidTokens[token] {
		return domainauth.TokenValidation{Valid: true, User: m.User}, nil
	}
	return domainauth.TokenValidation{Valid: false}, nil
}

func (m *MockAuthAPI) CurrentUser(ctx context.Context, token string) (domainauth.User, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx, token)
	}
	if !m.ValidTokens[token] {
		return domainauth.User{}, apperrors.TokenInvalid("token rejected")
	}
	return m.User, nil
}

func (m *MockAuthAPI) PasskeyRegisterBegin(ctx context.Context, in ports.PasskeyRegisterBeginInput) (domainauth.PasskeyChallenge, error) {
	if m.RegisterBegin != nil {
		return m.RegisterBegin(ctx, in)
	}
	return domainauth.PasskeyChallenge{Challenge: "cmVnaXN0ZXItY2hhbGxlbmdl"}, nil
}

func (m *MockAuthAPI) PasskeyRegisterComplete(ctx context.Context, in ports.PasskeyRegisterCompleteInput) error {
	if m.RegisterComplete != nil {
		return m.RegisterComplete(ctx, in)
	}
	return nil
}

func (m *MockAuthAPI) PasskeyAuthenticateBegin(ctx context.Context) (domainauth.PasskeyChallenge, error) {
	if m.AuthnBegin != nil {
		return m.AuthnBegin(ctx)
	}
	return domainauth.PasskeyChallenge{Challenge: "c2lnbmluLWNoYWxsZW5nZQ"}, nil
}

func (m *MockAuthAPI) PasskeyAuthenticateComplete(ctx context.Context, credential *protocol.CredentialAssertionResponse) (domainauth.PasskeySignIn, error) {
	if m.AuthnComplete != nil {
		return m.AuthnComplete(ctx, credential)
	}
	return domainauth.PasskeySignIn{User: m.User, Tokens: m.Tokens}, nil
}

// MockAuthenticator simulates a platform authenticator.
type MockAuthenticator struct {
	SupportedValue bool
	CreateFunc     func(ctx context.Context, options protocol.PublicKeyCredentialCreationOptions) (*protocol.CredentialCreationResponse, error)
	GetFunc        func(ctx context.Context, options protocol.PublicKeyCredentialRequestOptions) (*protocol.CredentialAssertionResponse, error)

	// LastCreation and LastRequest capture the most recent options for
	// assertions on ceremony parameters.
	LastCreation protocol.PublicKeyCredentialCreationOptions
	LastRequest  protocol.PublicKeyCredentialRequestOptions
}

// NewMockAuthenticator creates a supported authenticator returning minimal
// well-formed responses.
func NewMockAuthenticator() *MockAuthenticator {
	return &MockAuthenticator{SupportedValue: true}
}

func (m *MockAuthenticator) Supported() bool { return m.SupportedValue }

func (m *MockAuthenticator) Create(ctx context.Context, options protocol.PublicKeyCredentialCreationOptions) (*protocol.CredentialCreationResponse, error) {
	m.LastCreation = options
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, options)
	}
	return &protocol.CredentialCreationResponse{
		PublicKeyCredential: protocol.PublicKeyCredential{
			Credential: protocol.Credential{ID: "mock-credential", Type: string(protocol.PublicKeyCredentialType)},
			RawID:      protocol.URLEncodedBase64("mock-credential"),
		},
	}, nil
}

func (m *MockAuthenticator) Get(ctx context.Context, options protocol.PublicKeyCredentialRequestOptions) (*protocol.CredentialAssertionResponse, error) {
	m.LastRequest = options
	if m.GetFunc != nil {
		return m.GetFunc(ctx, options)
	}
	return &protocol.CredentialAssertionResponse{
		PublicKeyCredential: protocol.PublicKeyCredential{
			Credential: protocol.Credential{ID: "mock-credential", Type: string(protocol.PublicKeyCredentialType)},
			RawID:      protocol.URLEncodedBase64("mock-credential"),
		},
	}, nil
}

// FailingBackend is a token store backend whose operations fail with the
// configured error. Zero value methods succeed.
type FailingBackend struct {
	SaveErr  error
	LoadErr  error
	ClearErr error

	mu     sync.Mutex
	bundle domainauth.TokenBundle
	set    bool
}

func (b *FailingBackend) Save(_ context.Context, bundle domainauth.TokenBundle) error {
	if b.SaveErr != nil {
		return b.SaveErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bundle = bundle
	b.set = true
	return nil
}

func (b *FailingBackend) Load(_ context.Context) (domainauth.TokenBundle, bool, error) {
	if b.LoadErr != nil {
		return domainauth.TokenBundle{}, false, b.LoadErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.set {
		return domainauth.TokenBundle{}, false, nil
	}
	return b.bundle, true, nil
}

func (b *FailingBackend) Clear(_ context.Context) error {
	if b.ClearErr != nil {
		return b.ClearErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bundle = domainauth.TokenBundle{}
	b.set = false
	return nil
}
