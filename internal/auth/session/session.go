// Package session is the session authority: it marks a user as authenticated
// by issuing a signed token carried in a cookie. The sign-in orchestrator
// only sees the SignIn contract; cookie transport stays in the HTTP layer.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// CookieName is the cookie carrying the session token.
const CookieName = "travel_session"

// Config holds session signing configuration.
type Config struct {
	Secret        string        // HMAC signing secret
	TTL           time.Duration // lifetime of a regular session
	PersistentTTL time.Duration // lifetime when the user asked to stay signed in
	Issuer        string        // token issuer claim
}

// Manager issues and verifies session tokens.
type Manager struct {
	config Config
	log    *zap.Logger
}

// NewManager creates a session manager.
func NewManager(config Config, log *zap.Logger) *Manager {
	return &Manager{config: config, log: log}
}

// claims is the JWT payload for a session token.
type claims struct {
	jwt.RegisteredClaims
	Persistent bool `json:"persistent,omitempty"`
}

// SignIn issues a session token for the user. A persistent session gets the
// long-lived expiry.
func (m *Manager) SignIn(ctx context.Context, userID string, persistent bool) (string, error) {
	ttl := m.config.TTL
	if persistent {
		ttl = m.config.PersistentTTL
	}

	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Persistent: persistent,
	})

	signed, err := token.SignedString([]byte(m.config.Secret))
	if err != nil {
		m.log.Error("failed to sign session token", zap.String("user_id", userID), zap.Error(err))
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	m.log.Debug("session issued", zap.String("user_id", userID), zap.Bool("persistent", persistent))
	return signed, nil
}

// Verify parses a session token and returns the user id it was issued for.
func (m *Manager) Verify(tokenString string) (string, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(m.config.Secret), nil
	}, jwt.WithIssuer(m.config.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}
	if !token.Valid || c.Subject == "" {
		return "", fmt.Errorf("invalid session token")
	}
	return c.Subject, nil
}

// MaxAge returns the cookie max-age in seconds for a session kind. A
// non-persistent session cookie is dropped when the browser closes.
func (m *Manager) MaxAge(persistent bool) int {
	if persistent {
		return int(m.config.PersistentTTL.Seconds())
	}
	return 0
}
