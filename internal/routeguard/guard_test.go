package routeguard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/ecrec/storefront-auth/internal/domain/auth"
	mockauth "github.com/ecrec/storefront-auth/internal/mocks/auth"
	"github.com/ecrec/storefront-auth/internal/tokenstore"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want Classification
	}{
		{"/", Public},
		{"/auth/signin", Public},
		{"/auth/signin/passkey", Public},
		{"/auth/signup", Public},
		{"/products", Public},
		{"/products/123", Public},
		{"/categories", Public},
		{"/search", Public},
		{"/about", Public},
		{"/help", Public},
		{"/terms", Public},
		{"/privacy", Public},
		{"/profile", Protected},
		{"/profile/addresses", Protected},
		{"/cart", Protected},
		{"/orders", Protected},
		{"/orders/42", Protected},
		{"/checkout", Protected},
		{"/settings", Protected},
		{"/cartoon", Unclassified},
		{"/profiles", Unclassified},
		{"/wishlist", Unclassified},
		{"/blog/post", Unclassified},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.path))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for range 3 {
		assert.Equal(t, Protected, Classify("/cart"))
		assert.Equal(t, Public, Classify("/products"))
		assert.Equal(t, Unclassified, Classify("/wishlist"))
	}
}

func TestDecideProtectedWithoutToken(t *testing.T) {
	guard := New(Options{Validator: mockauth.NewMockAuthAPI()})

	decision := guard.Decide(context.Background(), "/cart", "")
	assert.False(t, decision.Allow)
	assert.Equal(t, "/auth/signin?redirect=%2Fcart", decision.RedirectURL)
}

func TestDecideProtectedWithValidToken(t *testing.T) {
	api := mockauth.NewMockAuthAPI()
	guard := New(Options{Validator: api})

	decision := guard.Decide(context.Background(), "/cart", api.Tokens.AccessToken)
	assert.True(t, decision.Allow)
	assert.Empty(t, decision.RedirectURL)
}

func TestDecideProtectedWithInvalidToken(t *testing.T) {
	guard := New(Options{Validator: mockauth.NewMockAuthAPI()})

	decision := guard.Decide(context.Background(), "/orders/42", "forged")
	assert.False(t, decision.Allow)
	assert.Equal(t, "/auth/signin?redirect=%2Forders%2F42", decision.RedirectURL)
}

func TestDecidePublicNeverValidates(t *testing.T) {
	api := mockauth.NewMockAuthAPI()
	guard := New(Options{Validator: api})

	decision := guard.Decide(context.Background(), "/products/1", "anything")
	assert.True(t, decision.Allow)
	assert.Zero(t, api.ValidateCalls(), "public routes must not hit the auth service")
}

func TestDecideUnclassifiedFailsOpen(t *testing.T) {
	api := mockauth.NewMockAuthAPI()
	guard := New(Options{Validator: api})

	decision := guard.Decide(context.Background(), "/wishlist", "")
	assert.True(t, decision.Allow)
	assert.Zero(t, api.ValidateCalls())
}

func TestDecideValidatorFailureDenies(t *testing.T) {
	api := mockauth.NewMockAuthAPI()
	api.ValidateFunc = func(context.Context, string) (domainauth.TokenValidation, error) {
		return domainauth.TokenValidation{}, context.DeadlineExceeded
	}
	guard := New(Options{Validator: api})

	decision := guard.Decide(context.Background(), "/checkout", "token")
	assert.False(t, decision.Allow)
}

func TestDecideSkipAuthAllowsEverything(t *testing.T) {
	api := mockauth.NewMockAuthAPI()
	guard := New(Options{Validator: api, SkipAuth: true})

	assert.True(t, guard.Decide(context.Background(), "/cart", "").Allow)
	assert.Zero(t, api.ValidateCalls())
}

func TestValidateCoalescesConcurrentLookups(t *testing.T) {
	api := mockauth.NewMockAuthAPI()
	var mu sync.Mutex
	calls := 0
	api.ValidateFunc = func(_ context.Context, token string) (domainauth.TokenValidation, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		time.Sleep(50 * time.Millisecond)
		return domainauth.TokenValidation{Valid: true}, nil
	}
	guard := New(Options{Validator: api})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision := guard.Decide(context.Background(), "/cart", "access-1")
			assert.True(t, decision.Allow)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "identical in-flight tokens must share one validation")
}

func TestValidateSurvivesCallerCancellation(t *testing.T) {
	api := mockauth.NewMockAuthAPI()
	api.ValidateFunc = func(ctx context.Context, _ string) (domainauth.TokenValidation, error) {
		if err := ctx.Err(); err != nil {
			return domainauth.TokenValidation{}, err
		}
		return domainauth.TokenValidation{Valid: true}, nil
	}
	guard := New(Options{Validator: api})

	// The upstream call runs on the first caller's context, so a cancelled
	// caller must not poison the shared result for coalesced waiters.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	decision := guard.Decide(ctx, "/cart", "access-1")
	assert.True(t, decision.Allow)
}

func TestTokenFromRequest(t *testing.T) {
	t.Run("bearer wins", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/cart", nil)
		r.Header.Set("Authorization", "Bearer header-token")
		r.AddCookie(&http.Cookie{Name: tokenstore.CookieName, Value: "cookie-token"})
		assert.Equal(t, "header-token", TokenFromRequest(r))
	})

	t.Run("cookie fallback", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/cart", nil)
		r.AddCookie(&http.Cookie{Name: tokenstore.CookieName, Value: "cookie-token"})
		assert.Equal(t, "cookie-token", TokenFromRequest(r))
	})

	t.Run("absent", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/cart", nil)
		assert.Empty(t, TokenFromRequest(r))
	})
}

func TestMiddlewareRedirects(t *testing.T) {
	guard := New(Options{Validator: mockauth.NewMockAuthAPI()})
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := guard.Middleware(next)

	t.Run("protected without token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/checkout", nil))
		require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		assert.Equal(t, "/auth/signin?redirect=%2Fcheckout", rec.Header().Get("Location"))
	})

	t.Run("public passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/products", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
