package jwt

import (
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// SessionClaims identifies the logged in account behind an app session.
type SessionClaims struct {
	Provider string `json:"provider"`
	UID      string `json:"uid"`
	Username string `json:"username,omitempty"`
	jwtlib.RegisteredClaims
}

// SessionIssuer signs and verifies the app session cookie issued after a
// completed login.
type SessionIssuer struct {
	issuer string
	key    []byte
	ttl    time.Duration
}

// NewSessionIssuer creates an HS256 issuer. The key must be at least 32 bytes.
func NewSessionIssuer(issuer string, key []byte, ttl time.Duration) (*SessionIssuer, error) {
	if len(key) < 32 {
		return nil, fmt.Errorf("%w: session signing key must be at least 32 bytes", apperrors.ErrConfiguration)
	}
	return &SessionIssuer{issuer: issuer, key: key, ttl: ttl}, nil
}

// TTL is the lifetime of issued sessions.
func (s *SessionIssuer) TTL() time.Duration { return s.ttl }

// Issue creates a signed session token for the account.
func (s *SessionIssuer) Issue(provider, uid, username string) (string, error) {
	now := NowTimeFunc()
	claims := SessionClaims{
		Provider: provider,
		UID:      uid,
		Username: username,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    s.issuer,                              // This service
			Subject:   provider + "/" + uid,                  // Account key
			IssuedAt:  jwtlib.NewNumericDate(now),            // Issued At
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)), // Expiry
			ID:        uuid.New().String(),                   // Unique token ID
		},
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("[SessionIssuer Issue] failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies a session token and returns its claims. Expired or
// otherwise invalid tokens fail with ErrSessionExpired.
func (s *SessionIssuer) Parse(raw string) (*SessionClaims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, apperrors.ErrSessionNotFound
	}
	claims := &SessionClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.key, nil
	},
		jwtlib.WithIssuer(s.issuer),
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(NowTimeFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSessionExpired, err)
	}
	if claims.Provider == "" || claims.UID == "" {
		return nil, fmt.Errorf("%w: session token has no account", apperrors.ErrSessionExpired)
	}
	return claims, nil
}
