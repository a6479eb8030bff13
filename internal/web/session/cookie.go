package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/zuul/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCookie is returned for cookies that are malformed, forged or
// expired.
var ErrInvalidCookie = errors.New("session: invalid cookie")

// CookieCodec signs session ids into compact HS256 JWTs so a client cannot
// pick its own session id.
type CookieCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewCookieCodec returns a codec signing with key. Cookies expire after ttl.
func NewCookieCodec(key []byte, ttl time.Duration) (*CookieCodec, error) {
	if len(key) < 32 {
		return nil, fmt.Errorf("session signing key must be at least 32 bytes, got %d", len(key))
	}
	return &CookieCodec{key: key, ttl: ttl, now: time.Now}, nil
}

// Encode returns the signed cookie value for the session id.
func (c *CookieCodec) Encode(id string) (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}
	return signed, nil
}

// Decode verifies a cookie value and returns the session id it carries.
func (c *CookieCodec) Decode(value string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(value, &claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCookie, err)
	}

	id, err := idx.Parse(claims.ID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCookie, err)
	}
	return id.String(), nil
}
