// Package session issues and resolves login sessions.
//
// The cookie carries an HS256-signed token whose only identifying claim is a
// random jti. The server keeps sha256(jti) -> (user, expiry), so a session can
// be revoked without touching the user and the cookie never exposes a user id.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/docshelf/internal/common"
	"github.com/Skotchmaster/docshelf/internal/models"
)

const DefaultTTL = 7 * 24 * time.Hour

type Store interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type Manager struct {
	store      Store
	secret     []byte
	ttl        time.Duration
	cookieName string
	now        func() time.Time
}

type Option func(*Manager)

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

func WithCookieName(name string) Option {
	return func(m *Manager) { m.cookieName = name }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(store Store, secret []byte, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		secret:     secret,
		ttl:        DefaultTTL,
		cookieName: "session",
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) CookieName() string { return m.cookieName }

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Create starts a session for userID and returns the signed token to place in
// the cookie together with its absolute expiry.
func (m *Manager) Create(ctx context.Context, userID uuid.UUID) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	jti := uuid.NewString()

	claims := jwt.RegisteredClaims{
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}

	row := &models.Session{
		TokenHash: sha256Hex(jti),
		UserID:    userID,
		ExpiresAt: exp,
		CreatedAt: now,
	}
	if err := m.store.CreateSession(ctx, row); err != nil {
		return "", time.Time{}, fmt.Errorf("store session: %w", err)
	}
	return token, exp, nil
}

func (m *Manager) parse(token string, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	return &claims, err
}

// Resolve maps a cookie value to its user. A nil user with a nil error means
// the caller is anonymous: no token, a forged or expired token, a revoked
// session, or a session whose user no longer exists. Only store failures are
// returned as errors. Resolve never writes; expired rows are left for Sweep.
func (m *Manager) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}

	claims, err := m.parse(token, jwt.WithExpirationRequired())
	if err != nil {
		return nil, nil
	}
	if claims.ID == "" {
		return nil, nil
	}

	tokenHash := sha256Hex(claims.ID)
	s, err := m.store.GetSessionByTokenHash(ctx, tokenHash)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.Expired(m.now()) {
		return nil, nil
	}

	u, err := m.store.GetUserByID(ctx, s.UserID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Destroy revokes the session behind token. Unknown, malformed and already
// revoked tokens are not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := m.parse(token, jwt.WithoutClaimsValidation())
	if err != nil || claims.ID == "" {
		return nil
	}
	return m.store.DeleteSessionByTokenHash(ctx, sha256Hex(claims.ID))
}

// Sweep removes every expired session row.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	return m.store.DeleteExpiredSessions(ctx, m.now())
}

func (m *Manager) Cookie(token string, exp time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(exp.Sub(m.now()).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
