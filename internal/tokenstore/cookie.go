package tokenstore

import (
	"net/http"
	"sync"
	"time"
)

// Ensure compile-time conformance.
var (
	_ CookieMirror = (*HTTPCookieMirror)(nil)
	_ CookieMirror = (*MemoryCookieMirror)(nil)
)

// HTTPCookieMirror mirrors the access token into a response cookie and reads
// it back from the request. It is request-scoped: construct one per request.
type HTTPCookieMirror struct {
	W      http.ResponseWriter
	R      *http.Request
	Domain string
}

// Write sets the access-token cookie: path=/, 7-day max age, secure,
// samesite=strict.
func (m *HTTPCookieMirror) Write(token string) error {
	http.SetCookie(m.W, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     CookiePath,
		Domain:   m.Domain,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   CookieMaxAge,
	})
	return nil
}

// Read returns the access token from the incoming request cookie.
func (m *HTTPCookieMirror) Read() (string, bool) {
	c, err := m.R.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Expire removes the cookie by setting its expiry to the epoch.
func (m *HTTPCookieMirror) Expire() error {
	http.SetCookie(m.W, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     CookiePath,
		Domain:   m.Domain,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
	return nil
}

// MemoryCookieMirror is an in-process mirror for library consumers and tests.
type MemoryCookieMirror struct {
	mu    sync.Mutex
	token string
	set   bool
}

func (m *MemoryCookieMirror) Write(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.set = true
	return nil
}

func (m *MemoryCookieMirror) Read() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set || m.token == "" {
		return "", false
	}
	return m.token, true
}

func (m *MemoryCookieMirror) Expire() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.set = false
	return nil
}
