// Package devauthn provides a software authenticator for development mode.
// It fabricates structurally valid ceremony responses without any key
// material; only a development auth service that skips signature
// verification will accept them. Never wire it in production.
package devauthn

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/ecrec/storefront-auth/internal/ports"
)

var _ ports.Authenticator = (*Authenticator)(nil)

// Authenticator is a fake platform authenticator for development.
type Authenticator struct {
	// CredentialID identifies the fabricated credential. Defaults to
	// "dev-credential".
	CredentialID string
	// Origin is echoed into the client data. Defaults to
	// "http://localhost:3000".
	Origin string
}

// Supported always reports true.
func (a *Authenticator) Supported() bool { return true }

// Create fabricates an attestation response echoing the challenge.
func (a *Authenticator) Create(_ context.Context, options protocol.PublicKeyCredentialCreationOptions) (*protocol.CredentialCreationResponse, error) {
	clientData, err := a.clientData("webauthn.create", options.Challenge)
	if err != nil {
		return nil, err
	}
	return &protocol.CredentialCreationResponse{
		PublicKeyCredential: protocol.PublicKeyCredential{
			Credential: protocol.Credential{
				ID:   a.credentialID(),
				Type: string(protocol.PublicKeyCredentialType),
			},
			RawID: protocol.URLEncodedBase64(a.credentialID()),
		},
		AttestationResponse: protocol.AuthenticatorAttestationResponse{
			AuthenticatorResponse: protocol.AuthenticatorResponse{
				ClientDataJSON: clientData,
			},
		},
	}, nil
}

// Get fabricates an assertion response echoing the challenge.
func (a *Authenticator) Get(_ context.Context, options protocol.PublicKeyCredentialRequestOptions) (*protocol.CredentialAssertionResponse, error) {
	clientData, err := a.clientData("webauthn.get", options.Challenge)
	if err != nil {
		return nil, err
	}
	return &protocol.CredentialAssertionResponse{
		PublicKeyCredential: protocol.PublicKeyCredential{
			Credential: protocol.Credential{
				ID:   a.credentialID(),
				Type: string(protocol.PublicKeyCredentialType),
			},
			RawID: protocol.URLEncodedBase64(a.credentialID()),
		},
		AssertionResponse: protocol.AuthenticatorAssertionResponse{
			AuthenticatorResponse: protocol.AuthenticatorResponse{
				ClientDataJSON: clientData,
			},
		},
	}, nil
}

func (a *Authenticator) credentialID() string {
	if a.CredentialID != "" {
		return a.CredentialID
	}
	return "dev-credential"
}

func (a *Authenticator) origin() string {
	if a.Origin != "" {
		return a.Origin
	}
	return "http://localhost:3000"
}

func (a *Authenticator) clientData(ceremony string, challenge protocol.URLEncodedBase64) (protocol.URLEncodedBase64, error) {
	data, err := json.Marshal(map[string]string{
		"type":      ceremony,
		"challenge": base64.RawURLEncoding.EncodeToString(challenge),
		"origin":    a.origin(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode client data: %w", err)
	}
	return protocol.URLEncodedBase64(data), nil
}
