package service

import (
	"context"

	"github.com/aussiebroadwan/zuul/internal/web/domain"
)

// UserProvider turns usernames reported by the Identity Provider into
// identities. Every username is accepted and granted the USER role.
type UserProvider struct{}

// LoadUserByIdentifier returns the identity of username without tokens.
func (UserProvider) LoadUserByIdentifier(_ context.Context, username string) (domain.UserIdentity, error) {
	if username == "" {
		return domain.UserIdentity{}, ErrMissingUsername
	}
	return domain.NewUserIdentity(username), nil
}

// RefreshUser reloads a previously authenticated identity. Credentials are
// not carried over.
func (p UserProvider) RefreshUser(ctx context.Context, user domain.UserIdentity) (domain.UserIdentity, error) {
	return p.LoadUserByIdentifier(ctx, user.ID())
}
