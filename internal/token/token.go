// Package token provides signed session token issuance and verification.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/parley/parley/internal/model"
)

// Token errors.
var (
	// ErrMissingSecret indicates the manager was constructed without a secret.
	ErrMissingSecret = errors.New("token secret must not be empty")
	// ErrInvalidToken indicates the token failed verification or has expired.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims defines the claims carried by a session token.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Manager mints and verifies HS256 session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a token Manager.
// Fails closed: an empty secret is a configuration error, not a fallback
// to unsigned tokens.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}, nil
}

// Issue mints a signed token for the given user.
func (m *Manager) Issue(userID, email string) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Issuer:    "parley",
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a token, returning the caller identity.
// Any parse, signature, or expiry failure maps to ErrInvalidToken.
func (m *Manager) Verify(tokenString string) (*model.Identity, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &model.Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}
