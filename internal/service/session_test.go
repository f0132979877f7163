package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/ecrec/storefront-auth/internal/domain/auth"
	apperrors "github.com/ecrec/storefront-auth/internal/errors"
	mockauth "github.com/ecrec/storefront-auth/internal/mocks/auth"
	"github.com/ecrec/storefront-auth/internal/ports"
	"github.com/ecrec/storefront-auth/internal/tokenstore"
)

func newTestManager(api ports.AuthAPI, backend tokenstore.Backend) (*SessionManager, *tokenstore.MemoryCookieMirror) {
	mirror := &tokenstore.MemoryCookieMirror{}
	store := tokenstore.NewStore(tokenstore.Options{Durable: backend, Cookie: mirror})
	mgr := NewSessionManager(SessionManagerOptions{API: api, Tokens: store})
	return mgr, mirror
}

func TestNewSessionManagerStartsLoading(t *testing.T) {
	mgr, _ := newTestManager(mockauth.NewMockAuthAPI(), &mockauth.FailingBackend{})

	session := mgr.Session()
	assert.True(t, session.IsLoading)
	assert.False(t, session.IsAuthenticated)
	assert.Nil(t, session.User)
}

func TestCheckAuthWithoutTokens(t *testing.T) {
	mgr, _ := newTestManager(mockauth.NewMockAuthAPI(), &mockauth.FailingBackend{})

	mgr.CheckAuth(context.Background())

	session := mgr.Session()
	assert.False(t, session.IsAuthenticated)
	assert.False(t, session.IsLoading)
	assert.Nil(t, session.User)
}

func TestSignInEstablishesSession(t *testing.T) {
	ctx := context.Background()
	api := mockauth.NewMockAuthAPI()
	backend := &mockauth.FailingBackend{}
	mgr, mirror := newTestManager(api, backend)

	resp, err := mgr.SignIn(ctx, api.User.Email, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, api.Tokens, resp.TokenBundle)

	session := mgr.Session()
	assert.True(t, session.IsAuthenticated)
	require.NotNil(t, session.User)
	assert.Equal(t, api.User.Email, session.User.Email)
	assert.Equal(t, "Test Shopper", session.User.DisplayName)

	// Both surfaces carry the credential.
	bundle, ok, err := backend.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, api.Tokens, bundle)
	token, ok := mirror.Read()
	require.True(t, ok)
	assert.Equal(t, api.Tokens.AccessToken, token)
}

func TestSignInWrongPassword(t *testing.T) {
	api := mockauth.NewMockAuthAPI()
	mgr, _ := newTestManager(api, &mockauth.FailingBackend{})

	_, err := mgr.SignIn(context.Background(), "nobody@example.com", "pw")
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidCredentials(err))

	session := mgr.Session()
	assert.False(t, session.IsAuthenticated)
	assert.Nil(t, session.User)
}

func TestCheckAuthClearsRejectedTokens(t *testing.T) {
	ctx := context.Background()
	api := mockauth.NewMockAuthAPI()
	backend := &mockauth.FailingBackend{}
	require.NoError(t, backend.Save(ctx, domainauth.TokenBundle{
		AccessToken:  "stale-token",
		IDToken:      "stale-id",
		RefreshToken: "stale-refresh",
	}))
	mgr, _ := newTestManager(api, backend)

	mgr.CheckAuth(ctx)

	session := mgr.Session()
	assert.False(t, session.IsAuthenticated)
	_, ok, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "rejected tokens must be cleared, not retried")
}

func TestCheckAuthIsIdempotent(t *testing.T) {
	ctx := context.Background()
	api := mockauth.NewMockAuthAPI()
	mgr, _ := newTestManager(api, &mockauth.FailingBackend{})

	_, err := mgr.SignIn(ctx, api.User.Email, "pw")
	require.NoError(t, err)

	first := mgr.Session()
	mgr.CheckAuth(ctx)
	second := mgr.Session()
	assert.Equal(t, first.IsAuthenticated, second.IsAuthenticated)
	assert.Equal(t, first.User.ID, second.User.ID)
}

func TestSessionInvariantHolds(t *testing.T) {
	ctx := context.Background()
	api := mockauth.NewMockAuthAPI()
	mgr, _ := newTestManager(api, &mockauth.FailingBackend{})

	steps := []func(){
		func() { mgr.CheckAuth(ctx) },
		func() { _, _ = mgr.SignIn(ctx, api.User.Email, "pw") },
		func() { mgr.RefreshSession(ctx) },
		func() { mgr.SignOut(ctx) },
		func() { _, _ = mgr.SignIn(ctx, "wrong@example.com", "pw") },
	}
	for _, step := range steps {
		step()
		session := mgr.Session()
		assert.Equal(t, session.User != nil, session.IsAuthenticated,
			"IsAuthenticated must track User presence")
	}
}

func TestSignOutAlwaysResets(t *testing.T) {
	ctx := context.Background()
	api := mockauth.NewMockAuthAPI()
	backend := &mockauth.FailingBackend{ClearErr: errors.New("backend down")}
	mgr, _ := newTestManager(api, backend)

	_, err := mgr.SignIn(ctx, api.User.Email, "pw")
	require.NoError(t, err)

	// Clearing fails underneath but the session still resets.
	mgr.SignOut(ctx)
	session := mgr.Session()
	assert.False(t, session.IsAuthenticated)
	assert.Nil(t, session.User)
}

func TestSignUpDoesNotAuthenticate(t *testing.T) {
	ctx := context.Background()
	api := mockauth.NewMockAuthAPI()
	mgr, _ := newTestManager(api, &mockauth.FailingBackend{})

	require.NoError(t, mgr.SignUp(ctx, "new@example.com", "pw", "New Shopper"))

	session := mgr.Session()
	assert.False(t, session.IsAuthenticated)
	assert.Nil(t, session.User)
}

func TestSignUpDuplicatePropagates(t *testing.T) {
	api := mockauth.NewMockAuthAPI()
	mgr, _ := newTestManager(api, &mockauth.FailingBackend{})

	err := mgr.SignUp(context.Background(), api.User.Email, "pw", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsDuplicateAccount(err))
}

func TestInterruptedSignInLeavesNoPartialState(t *testing.T) {
	ctx := context.Background()
	api := mockauth.NewMockAuthAPI()
	backend := &mockauth.FailingBackend{SaveErr: errors.New("backend down")}
	mgr, mirror := newTestManager(api, backend)

	_, err := mgr.SignIn(ctx, api.User.Email, "pw")
	require.Error(t, err)

	session := mgr.Session()
	assert.False(t, session.IsAuthenticated)
	_, mirrored := mirror.Read()
	assert.False(t, mirrored)
}

func TestDisplayNameFallsBackToEmail(t *testing.T) {
	ctx := context.Background()
	api := mockauth.NewMockAuthAPI()
	api.User.Attributes = nil
	mgr, _ := newTestManager(api, &mockauth.FailingBackend{})

	_, err := mgr.SignIn(ctx, api.User.Email, "pw")
	require.NoError(t, err)

	session := mgr.Session()
	require.NotNil(t, session.User)
	assert.Equal(t, api.User.Email, session.User.DisplayName)
}

func TestDevUserShortCircuits(t *testing.T) {
	ctx := context.Background()
	dev := &domainauth.User{ID: "dev-user", Email: "dev@example.com", DisplayName: "Dev User"}
	mirror := &tokenstore.MemoryCookieMirror{}
	store := tokenstore.NewStore(tokenstore.Options{Durable: &mockauth.FailingBackend{}, Cookie: mirror})
	api := mockauth.NewMockAuthAPI()
	api.CurrentUserFunc = func(context.Context, string) (domainauth.User, error) {
		t.Fatal("dev mode must not call the auth service")
		return domainauth.User{}, nil
	}
	mgr := NewSessionManager(SessionManagerOptions{API: api, Tokens: store, DevUser: dev})

	mgr.CheckAuth(ctx)
	session := mgr.Session()
	assert.True(t, session.IsAuthenticated)
	require.NotNil(t, session.User)
	assert.Equal(t, "dev-user", session.User.ID)
}
