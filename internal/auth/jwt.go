// Package auth verifies the access tokens issued by the Identity service.
package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/domain/identity"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of an access token.
type Claims struct {
	UserID string `json:"sub_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Principal converts the claims into the authenticated actor.
func (c *Claims) Principal() (identity.Principal, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return identity.Principal{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	role := identity.Role(c.Role)
	if !role.IsValid() {
		return identity.Principal{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, c.Role)
	}
	return identity.Principal{ID: id, Role: role}, nil
}

// JWTManager signs and validates HS256 access tokens.
type JWTManager struct {
	secret    []byte
	accessTTL time.Duration
}

// NewJWTManager creates a new JWTManager.
func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), accessTTL: accessTTL}
}

// GenerateAccessToken issues a token for the given principal. Tokens are
// normally minted by the Identity service; this is used by tests and the
// seeder.
func (m *JWTManager) GenerateAccessToken(p identity.Principal) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: p.ID.String(),
		Role:   string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and verifies tokenStr.
func (m *JWTManager) ValidateToken(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, ErrInvalidToken
	}
	return c, nil
}
