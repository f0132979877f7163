// Package tokenstore keeps the credential bundle consistent across its two
// storage surfaces: a durable backend readable by application code and a
// cookie mirror readable by the route guard at the edge. Both surfaces are
// written and cleared as one logical operation.
package tokenstore

import (
	"context"
	"errors"
	"log/slog"

	apperrors "github.com/ecrec/storefront-auth/internal/errors"

	domainauth "github.com/ecrec/storefront-auth/internal/domain/auth"
)

// Cookie attributes for the access-token mirror.
const (
	CookieName   = "accessToken"
	CookiePath   = "/"
	CookieMaxAge = 7 * 24 * 60 * 60 // 604800s
)

// Backend is the durable surface. Implementations replace or remove the whole
// bundle; a partial bundle is never written.
type Backend interface {
	Save(ctx context.Context, bundle domainauth.TokenBundle) error
	Load(ctx context.Context) (domainauth.TokenBundle, bool, error)
	Clear(ctx context.Context) error
}

// CookieMirror is the HTTP-readable surface carrying only the access token.
type CookieMirror interface {
	Write(token string) error
	// Read returns the mirrored access token and whether it is present.
	Read() (string, bool)
	// Expire removes the cookie by setting its expiry to the epoch.
	Expire() error
}

// Store writes the bundle to the durable backend and mirrors the access token
// into the cookie. If either surface fails to write, the bundle is treated as
// absent on the next load rather than left half-written: Save clears both
// surfaces before reporting the error.
type Store struct {
	durable Backend
	cookie  CookieMirror
	logger  *slog.Logger
}

// Options groups dependencies for NewStore.
type Options struct {
	Durable Backend
	Cookie  CookieMirror
	Logger  *slog.Logger
}

// NewStore constructs a dual-surface token store.
func NewStore(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		durable: opts.Durable,
		cookie:  opts.Cookie,
		logger:  logger,
	}
}

// Save persists all three tokens durably and mirrors the access token to the
// cookie. A failure on either surface rolls both back to absent.
func (s *Store) Save(ctx context.Context, bundle domainauth.TokenBundle) error {
	if bundle.IsZero() {
		return apperrors.Validation("token bundle is empty")
	}

	if err := s.durable.Save(ctx, bundle); err != nil {
		s.rollback(ctx)
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "save token bundle")
	}
	if err := s.cookie.Write(bundle.AccessToken); err != nil {
		s.rollback(ctx)
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "mirror access token")
	}
	return nil
}

// Load returns the durable bundle. Absence of the durable copy means no
// credential regardless of cookie state.
func (s *Store) Load(ctx context.Context) (domainauth.TokenBundle, bool, error) {
	bundle, ok, err := s.durable.Load(ctx)
	if err != nil {
		return domainauth.TokenBundle{}, false, apperrors.Wrap(err, apperrors.ErrCodeInternal, "load token bundle")
	}
	if !ok || bundle.IsZero() {
		return domainauth.TokenBundle{}, false, nil
	}
	return bundle, true, nil
}

// Clear removes the durable entries and expires the cookie. Both surfaces are
// attempted even when one fails; the errors are joined.
func (s *Store) Clear(ctx context.Context) error {
	err := errors.Join(s.durable.Clear(ctx), s.cookie.Expire())
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "clear token bundle")
	}
	return nil
}

// CookieToken returns the mirrored access token, if present.
func (s *Store) CookieToken() (string, bool) {
	return s.cookie.Read()
}

// rollback best-effort clears both surfaces after a failed save. Errors are
// logged, not returned: the caller already has the save failure, and an
// absent bundle reads as unauthenticated either way.
func (s *Store) rollback(ctx context.Context) {
	if err := s.durable.Clear(ctx); err != nil {
		s.logger.WarnContext(ctx, "rollback durable token store failed", "error", err)
	}
	if err := s.cookie.Expire(); err != nil {
		s.logger.WarnContext(ctx, "rollback cookie mirror failed", "error", err)
	}
}
