package service

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"

	domainauth "github.com/ecrec/storefront-auth/internal/domain/auth"
	apperrors "github.com/ecrec/storefront-auth/internal/errors"
	"github.com/ecrec/storefront-auth/internal/observability/statsd"
	"github.com/ecrec/storefront-auth/internal/ports"
)

// ceremonyTimeoutMS bounds user interaction with the authenticator.
const ceremonyTimeoutMS = 60000

// PasskeyCeremonyOptions groups dependencies for PasskeyCeremony.
type PasskeyCeremonyOptions struct {
	API           ports.AuthAPI
	Authenticator ports.Authenticator
	Logger        *slog.Logger
	Metrics       statsd.Sink

	// RPID and RPName identify the relying party presented to the
	// authenticator during registration.
	RPID   string
	RPName string
}

// PasskeyCeremony drives the two WebAuthn flows end to end: registration
// (server challenge, authenticator attestation, server verification) and
// authentication (server challenge, authenticator assertion, server
// verification). Each ceremony is atomic: a failure at any step leaves no
// partial state, and every attempt starts with a fresh server challenge.
type PasskeyCeremony struct {
	api     ports.AuthAPI
	authn   ports.Authenticator
	logger  *slog.Logger
	metrics statsd.Sink
	rpID    string
	rpName  string
}

// NewPasskeyCeremony constructs the ceremony driver.
func NewPasskeyCeremony(opts PasskeyCeremonyOptions) *PasskeyCeremony {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PasskeyCeremony{
		api:     opts.API,
		authn:   opts.Authenticator,
		logger:  logger,
		metrics: opts.Metrics,
		rpID:    opts.RPID,
		rpName:  opts.RPName,
	}
}

// Supported reports whether a platform authenticator is available. Register
// and Authenticate fail with ceremony_aborted when it is not.
func (c *PasskeyCeremony) Supported() bool {
	return c.authn != nil && c.authn.Supported()
}

// Register runs the full registration ceremony for an authenticated user.
// The attestation produced by the authenticator is forwarded to the server
// and then discarded; nothing credential-shaped is retained locally.
func (c *PasskeyCeremony) Register(ctx context.Context, user domainauth.User) error {
	if !c.Supported() {
		return apperrors.CeremonyAborted("passkeys are not supported on this device")
	}

	challenge, err := c.api.PasskeyRegisterBegin(ctx, ports.PasskeyRegisterBeginInput{
		UserID:   user.ID,
		UserName: user.Email,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "passkey registration begin failed", "error", err)
		return apperrors.Wrap(err, apperrors.ErrCodeCeremonyAborted, "registration could not be started")
	}

	options := c.creationOptions(challenge, user)
	credential, err := c.authn.Create(ctx, options)
	if err != nil {
		c.logger.InfoContext(ctx, "passkey registration ceremony failed", "error", err)
		return apperrors.Wrap(err, apperrors.ErrCodeCeremonyAborted, "registration was cancelled or failed")
	}

	err = c.api.PasskeyRegisterComplete(ctx, ports.PasskeyRegisterCompleteInput{
		UserID:     user.ID,
		Credential: credential,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "passkey registration complete failed", "error", err)
		return apperrors.Wrap(err, apperrors.ErrCodeCeremonyAborted, "registration could not be verified")
	}

	c.count("passkey.register")
	return nil
}

// Authenticate runs the full authentication ceremony and returns the
// signed-in user with a token bundle. Persisting the tokens is the caller's
// job; see SessionManager.RefreshSession for the follow-up.
func (c *PasskeyCeremony) Authenticate(ctx context.Context) (domainauth.PasskeySignIn, error) {
	if !c.Supported() {
		return domainauth.PasskeySignIn{}, apperrors.CeremonyAborted("passkeys are not supported on this device")
	}

	challenge, err := c.api.PasskeyAuthenticateBegin(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "passkey sign-in begin failed", "error", err)
		return domainauth.PasskeySignIn{}, apperrors.Wrap(err, apperrors.ErrCodeCeremonyAborted, "sign-in could not be started")
	}

	options := c.requestOptions(challenge)
	assertion, err := c.authn.Get(ctx, options)
	if err != nil {
		c.logger.InfoContext(ctx, "passkey sign-in ceremony failed", "error", err)
		return domainauth.PasskeySignIn{}, apperrors.Wrap(err, apperrors.ErrCodeCeremonyAborted, "sign-in was cancelled or failed")
	}

	result, err := c.api.PasskeyAuthenticateComplete(ctx, assertion)
	if err != nil {
		c.logger.WarnContext(ctx, "passkey sign-in complete failed", "error", err)
		return domainauth.PasskeySignIn{}, apperrors.Wrap(err, apperrors.ErrCodeCeremonyAborted, "sign-in could not be verified")
	}

	c.count("passkey.authenticate")
	return result, nil
}

// creationOptions builds the registration options around the server
// challenge: ES256 and RS256, discoverable credential preferred, user
// verification preferred, no attestation conveyance.
func (c *PasskeyCeremony) creationOptions(challenge domainauth.PasskeyChallenge, user domainauth.User) protocol.PublicKeyCredentialCreationOptions {
	return protocol.PublicKeyCredentialCreationOptions{
		Challenge: decodeChallenge(challenge.Challenge),
		RelyingParty: protocol.RelyingPartyEntity{
			CredentialEntity: protocol.CredentialEntity{Name: c.rpName},
			ID:               c.rpID,
		},
		User: protocol.UserEntity{
			CredentialEntity: protocol.CredentialEntity{Name: user.Email},
			DisplayName:      user.DisplayName,
			ID:               []byte(user.ID),
		},
		Parameters: []protocol.CredentialParameter{
			{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgES256},
			{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgRS256},
		},
		Timeout: ceremonyTimeoutMS,
		AuthenticatorSelection: protocol.AuthenticatorSelection{
			ResidentKey:      protocol.ResidentKeyRequirementPreferred,
			UserVerification: protocol.VerificationPreferred,
		},
		Attestation: protocol.PreferNoAttestation,
	}
}

// requestOptions builds the authentication options around the server
// challenge. AllowedCredentials stays empty unless the server narrowed the
// candidates, keeping discoverable-credential sign-in possible.
func (c *PasskeyCeremony) requestOptions(challenge domainauth.PasskeyChallenge) protocol.PublicKeyCredentialRequestOptions {
	options := protocol.PublicKeyCredentialRequestOptions{
		Challenge:        decodeChallenge(challenge.Challenge),
		Timeout:          ceremonyTimeoutMS,
		RelyingPartyID:   c.rpID,
		UserVerification: protocol.VerificationPreferred,
	}
	if len(challenge.AllowCredentials) > 0 {
		options.AllowedCredentials = challenge.AllowCredentials
	}
	return options
}

// decodeChallenge converts the server's base64url challenge into raw bytes.
// A challenge that does not decode is passed through verbatim so the server
// rejects it instead of the client guessing.
func decodeChallenge(challenge string) protocol.URLEncodedBase64 {
	raw, err := base64.RawURLEncoding.DecodeString(challenge)
	if err != nil {
		return protocol.URLEncodedBase64(challenge)
	}
	return protocol.URLEncodedBase64(raw)
}

func (c *PasskeyCeremony) count(name string) {
	if c.metrics != nil {
		c.metrics.Count(name, 1, nil)
	}
}
