// Package service implements the login flow against the Zuul Identity
// Provider: the authenticator state machine, the session-backed token store
// and the Usermap profile client.
package service

import (
	"context"

	"github.com/aussiebroadwan/zuul/pkg/zuul"
)

//go:generate mockgen -destination=mocks/mock_identity_provider.go -package=mocks github.com/aussiebroadwan/zuul/internal/web/service IdentityProvider

// IdentityProvider is the subset of *zuul.Client the services depend on.
type IdentityProvider interface {
	BuildAuthorizationURL(scopes []string, opts ...zuul.AuthURLOption) string
	ExchangeCode(ctx context.Context, code string) (*zuul.Token, error)
	RefreshToken(ctx context.Context, refreshToken string) (*zuul.Token, error)
	FetchResourceOwner(ctx context.Context, accessToken string) (*zuul.ResourceOwner, error)
}

var _ IdentityProvider = (*zuul.Client)(nil)
