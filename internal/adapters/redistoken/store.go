// Package redistoken provides the Redis-backed durable surface of the token
// store. Each client gets its own key namespace; tokens are replaced and
// removed as a whole bundle inside one pipeline so readers never observe a
// partial write.
package redistoken

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/ecrec/storefront-auth/internal/domain/auth"
	"github.com/ecrec/storefront-auth/internal/tokenstore"
)

var _ tokenstore.Backend = (*Store)(nil)

// Durable store keys under the per-client prefix.
const (
	keyAccessToken  = "accessToken"
	keyIDToken      = "idToken"
	keyRefreshToken = "refreshToken"
)

// DefaultTTL matches the cookie mirror lifetime: neither surface may outlive
// the other for the access token.
const DefaultTTL = 7 * 24 * time.Hour

// Store is a Redis-based durable token store for one client.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewStore creates a durable token store bound to a client identifier.
func NewStore(client redis.UniversalClient, clientID string) *Store {
	return &Store{
		client: client,
		prefix: "tokens:" + clientID + ":",
		ttl:    DefaultTTL,
	}
}

// Save writes all three tokens in one transactional pipeline.
func (s *Store) Save(ctx context.Context, bundle domainauth.TokenBundle) error {
	if bundle.IsZero() {
		return errors.New("token bundle cannot be empty")
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.prefix+keyAccessToken, bundle.AccessToken, s.ttl)
		pipe.Set(ctx, s.prefix+keyIDToken, bundle.IDToken, s.ttl)
		pipe.Set(ctx, s.prefix+keyRefreshToken, bundle.RefreshToken, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save tokens: %w", err)
	}
	return nil
}

// Load reads the bundle back. A missing access token means no credential even
// when the other entries survived; a whole-bundle write guarantees the
// reverse cannot normally happen.
func (s *Store) Load(ctx context.Context) (domainauth.TokenBundle, bool, error) {
	values, err := s.client.MGet(ctx,
		s.prefix+keyAccessToken,
		s.prefix+keyIDToken,
		s.prefix+keyRefreshToken,
	).Result()
	if err != nil {
		return domainauth.TokenBundle{}, false, fmt.Errorf("redis load tokens: %w", err)
	}

	bundle := domainauth.TokenBundle{
		AccessToken:  stringAt(values, 0),
		IDToken:      stringAt(values, 1),
		RefreshToken: stringAt(values, 2),
	}
	if bundle.AccessToken == "" {
		return domainauth.TokenBundle{}, false, nil
	}
	return bundle, true, nil
}

// Clear removes all three durable entries.
func (s *Store) Clear(ctx context.Context) error {
	err := s.client.Del(ctx,
		s.prefix+keyAccessToken,
		s.prefix+keyIDToken,
		s.prefix+keyRefreshToken,
	).Err()
	if err != nil {
		return fmt.Errorf("redis clear tokens: %w", err)
	}
	return nil
}

func stringAt(values []any, i int) string {
	if i >= len(values) || values[i] == nil {
		return ""
	}
	s, ok := values[i].(string)
	if !ok {
		return ""
	}
	return s
}
