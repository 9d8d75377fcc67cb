// Package auth guards the loopback HTTP bridge with HMAC-signed bearer tokens.
// Requests served to the embedded browser never pass through it; only local
// tools calling the bridge do.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// DefaultAudience is the aud claim bridge tokens must carry.
const DefaultAudience = "steeze-desk-bridge"

type ctxKey struct{}

type claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

type Middleware struct {
	secret   []byte
	audience string
	leeway   time.Duration
	open     map[string]bool
	log      *zap.Logger
}

type Option func(*Middleware)

func WithAudience(aud string) Option { return func(m *Middleware) { m.audience = aud } }

func WithLeeway(d time.Duration) Option { return func(m *Middleware) { m.leeway = d } }

// WithOpenPaths lets exact paths through without a token (health checks).
func WithOpenPaths(paths ...string) Option {
	return func(m *Middleware) {
		for _, p := range paths {
			m.open[p] = true
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Middleware) {
		if l != nil {
			m.log = l
		}
	}
}

// New returns a guard that verifies HS256 tokens signed with secret.
func New(secret []byte, opts ...Option) (*Middleware, error) {
	if len(secret) < 32 {
		return nil, errors.New("auth: bridge secret must be at least 32 bytes")
	}
	m := &Middleware{
		secret:   append([]byte(nil), secret...),
		audience: DefaultAudience,
		leeway:   30 * time.Second,
		open:     map[string]bool{},
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// Issue mints a token for subject valid for ttl.
func (m *Middleware) Issue(subject string, ttl time.Duration, roles ...string) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: roles,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

// Verify parses and validates a raw token.
func (m *Middleware) Verify(raw string) (Caller, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(m.leeway),
	)
	var c claims
	tok, err := parser.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) { return m.secret, nil })
	if err != nil {
		return Caller{}, err
	}
	if !tok.Valid || c.Subject == "" {
		return Caller{}, errors.New("invalid token")
	}
	return Caller{Subject: c.Subject, Audience: c.Audience, Roles: c.Roles}, nil
}

// Handler rejects requests without a valid bearer token with 401.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.open[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		raw, ok := bearer(r)
		if !ok {
			unauthorized(w)
			return
		}
		c, err := m.Verify(raw)
		if err != nil {
			m.log.Warn("bridge token rejected", zap.String("path", r.URL.Path), zap.Error(err))
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, c)))
	})
}

// CallerFrom returns the caller a request was authorized as.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(Caller)
	return c, ok
}

func bearer(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="bridge"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"kind":"Unauthorized","message":"bridge token required","status":401}}`))
}
