// Package memtoken provides an in-memory durable token surface for tests and
// single-process library consumers.
package memtoken

import (
	"context"
	"sync"

	domainauth "github.com/ecrec/storefront-auth/internal/domain/auth"
	"github.com/ecrec/storefront-auth/internal/tokenstore"
)

var _ tokenstore.Backend = (*Store)(nil)

// Store holds one bundle in memory. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	bundle domainauth.TokenBundle
	set    bool
}

// NewStore creates an empty in-memory token store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) Save(_ context.Context, bundle domainauth.TokenBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundle = bundle
	s.set = true
	return nil
}

func (s *Store) Load(_ context.Context) (domainauth.TokenBundle, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return domainauth.TokenBundle{}, false, nil
	}
	return s.bundle, true, nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundle = domainauth.TokenBundle{}
	s.set = false
	return nil
}
