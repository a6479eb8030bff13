package domain

import (
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/zuul/pkg/cryptox"
)

// ErrEmptyAccessToken is returned when constructing a TokenPair without an
// access token.
var ErrEmptyAccessToken = errors.New("access token must not be empty")

// TokenPair is an OAuth 2.0 access token with an optional refresh token.
// Values are immutable and comparable.
type TokenPair struct {
	accessToken  string
	refreshToken string
}

// NewTokenPair builds a TokenPair. An empty refreshToken means the pair has
// no refresh token.
func NewTokenPair(accessToken, refreshToken string) (TokenPair, error) {
	if accessToken == "" {
		return TokenPair{}, ErrEmptyAccessToken
	}
	return TokenPair{accessToken: accessToken, refreshToken: refreshToken}, nil
}

// AccessToken returns the bearer credential.
func (p TokenPair) AccessToken() string { return p.accessToken }

// RefreshToken returns the refresh token and whether one is present.
func (p TokenPair) RefreshToken() (string, bool) {
	return p.refreshToken, p.refreshToken != ""
}

// IsZero reports whether p is the zero value.
func (p TokenPair) IsZero() bool { return p.accessToken == "" }

// LogValue renders fingerprints only.
func (p TokenPair) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("access_token_fp", fingerprint(p.accessToken)),
	}
	if p.refreshToken != "" {
		attrs = append(attrs, slog.String("refresh_token_fp", fingerprint(p.refreshToken)))
	}
	return slog.GroupValue(attrs...)
}

// String never includes the raw tokens.
func (p TokenPair) String() string {
	if p.IsZero() {
		return "TokenPair{}"
	}
	_, hasRefresh := p.RefreshToken()
	if hasRefresh {
		return "TokenPair{access:" + fingerprint(p.accessToken)[:8] + " refresh:" + fingerprint(p.refreshToken)[:8] + "}"
	}
	return "TokenPair{access:" + fingerprint(p.accessToken)[:8] + "}"
}

func fingerprint(token string) string {
	if token == "" {
		return ""
	}
	return cryptox.FingerprintToken(token)
}
