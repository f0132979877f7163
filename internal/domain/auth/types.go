// Package auth contains domain-level types for the storefront authentication
// session. It is pure and free of transport/adapter concerns.
package auth

import "github.com/go-webauthn/webauthn/protocol"

// User is the authenticated principal as reported by the auth service.
// It is an immutable snapshot: session reconciliation replaces the whole
// value, never individual fields.
type User struct {
	ID            string            `json:"id"`
	Email         string            `json:"email"`
	EmailVerified bool              `json:"emailVerified"`
	DisplayName   string            `json:"displayName,omitempty"`
	Attributes    map[string]string `json:"attributes"`
}

// Session is the single per-client authentication state.
// Invariant: IsAuthenticated == (User != nil).
// IsLoading is true only during the initial reconciliation or an in-flight
// sign-in/sign-up/sign-out.
type Session struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"isAuthenticated"`
	IsLoading       bool  `json:"isLoading"`
}

// TokenBundle holds the opaque credential strings issued by the auth service.
// It is always written and cleared as a whole, never field by field.
type TokenBundle struct {
	AccessToken  string `json:"accessToken"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

// IsZero reports whether no credential is present.
func (b TokenBundle) IsZero() bool {
	return b.AccessToken == "" && b.IDToken == "" && b.RefreshToken == ""
}

// AuthResponse is the sign-in/refresh response: a token bundle plus the user
// it was issued for.
type AuthResponse struct {
	TokenBundle
	User User `json:"user"`
}

// TokenValidation is the result of the validate endpoint.
type TokenValidation struct {
	Valid bool `json:"valid"`
	User  User `json:"user"`
}

// PasskeyChallenge is a server-issued, single-use WebAuthn challenge.
// AllowCredentials is present only for authentication ceremonies where the
// server knows candidate credentials.
type PasskeyChallenge struct {
	Challenge        string                          `json:"challenge"`
	AllowCredentials []protocol.CredentialDescriptor `json:"allowCredentials,omitempty"`
}

// PasskeySignIn is the outcome of a completed passkey authentication
// ceremony. Tokens must be persisted by the caller; the ceremony itself
// keeps nothing.
type PasskeySignIn struct {
	User   User        `json:"user"`
	Tokens TokenBundle `json:"tokens"`
}
