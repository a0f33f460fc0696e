// Package auth issues and verifies HS256 JWTs, hashes passwords, and
// extracts bearer credentials from incoming requests. Token semantics are
// ported from the reference encode_jwt_token/decode_jwt_token.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload, mirroring the reference Token schema.
type Claims struct {
	Login string `json:"login"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies tokens for a single HS256 secret.
type Issuer struct {
	secret     []byte
	defaultTTL time.Duration
}

// NewIssuer constructs an Issuer. defaultTTL is used when Issue is called
// without an explicit expiration override.
func NewIssuer(secret string, defaultTTL time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), defaultTTL: defaultTTL}
}

// TokenResponse is returned to API clients on successful login.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Issue mints a signed JWT for userID/login, expiring after ttl (or the
// Issuer's default when ttl is zero).
func (i *Issuer) Issue(userID, login string, ttl time.Duration) (TokenResponse, error) {
	if ttl <= 0 {
		ttl = i.defaultTTL
	}
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	claims := Claims{
		Login: login,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{AccessToken: signed, ExpiresIn: int64(ttl.Seconds()), ExpiresAt: expiresAt}, nil
}

// Verify parses and validates a token, returning its claims if valid and
// unexpired.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
