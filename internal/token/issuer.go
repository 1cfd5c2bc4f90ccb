package token

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTIssuer mints HS256-signed session credentials. Each call produces a
// fresh token; the jti claim guarantees distinctness even within one second.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTIssuer builds an issuer signing with the given secret. A zero TTL
// defaults to 24 hours.
func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a session credential for the account. The credential carries
// only the account id and display name, never any password material.
func (i *JWTIssuer) Issue(_ context.Context, accountID, displayName string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  accountID,
		"name": displayName,
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  now.Add(i.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}
