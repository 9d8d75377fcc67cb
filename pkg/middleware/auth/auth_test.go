package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte(strings.Repeat("k", 32))

func guarded(t *testing.T, opts ...Option) (*Middleware, http.Handler) {
	t.Helper()
	m, err := New(secret, opts...)
	require.NoError(t, err)
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := CallerFrom(r.Context())
		if ok {
			w.Header().Set("X-Caller", c.Subject)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	return m, h
}

func call(h http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_ShortSecret(t *testing.T) {
	_, err := New([]byte("short"))
	assert.Error(t, err)
}

func TestHandler_ValidToken(t *testing.T) {
	m, h := guarded(t)
	tok, err := m.Issue("cli", time.Minute, "admin")
	require.NoError(t, err)

	rec := call(h, "/api/movies", tok)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "cli", rec.Header().Get("X-Caller"))

	c, err := m.Verify(tok)
	require.NoError(t, err)
	assert.True(t, c.HasRole("admin"))
	assert.False(t, c.HasRole("viewer"))
}

func TestHandler_Rejects(t *testing.T) {
	m, h := guarded(t)

	rec := call(h, "/api/movies", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")

	expired, err := m.Issue("cli", -time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(h, "/api/movies", expired).Code)

	other, err := New([]byte(strings.Repeat("x", 32)))
	require.NoError(t, err)
	forged, err := other.Issue("cli", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(h, "/api/movies", forged).Code)

	wrongAud, err := New(secret, WithAudience("someone-else"))
	require.NoError(t, err)
	tok, err := wrongAud.Issue("cli", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(h, "/api/movies", tok).Code)
}

func TestHandler_OpenPaths(t *testing.T) {
	_, h := guarded(t, WithOpenPaths("/ping"))
	assert.Equal(t, http.StatusNoContent, call(h, "/ping", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(h, "/pingx", "").Code)
}
