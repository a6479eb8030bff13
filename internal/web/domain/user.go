package domain

import (
	"encoding/json"
	"log/slog"
	"slices"
)

// Role is an authorization role granted to a user.
type Role string

// RoleUser is granted to every authenticated user.
const RoleUser Role = "USER"

// UserIdentity is an authenticated principal. Values are immutable: the
// With* and EraseCredentials methods return modified copies.
type UserIdentity struct {
	id    string
	roles []Role

	accessToken  string
	refreshToken string
}

// NewUserIdentity returns the identity of the user with the given username,
// holding the USER role and no tokens.
func NewUserIdentity(id string) UserIdentity {
	return UserIdentity{id: id, roles: []Role{RoleUser}}
}

// ID returns the username reported by the Identity Provider.
func (u UserIdentity) ID() string { return u.id }

// IsZero reports whether u is the zero value.
func (u UserIdentity) IsZero() bool { return u.id == "" }

// Roles returns a copy of the granted roles.
func (u UserIdentity) Roles() []Role { return slices.Clone(u.roles) }

// HasRole reports whether role is granted.
func (u UserIdentity) HasRole(role Role) bool { return slices.Contains(u.roles, role) }

// WithTokens returns a copy of u carrying the given pair.
func (u UserIdentity) WithTokens(pair TokenPair) UserIdentity {
	u.accessToken = pair.accessToken
	u.refreshToken = pair.refreshToken
	return u
}

// AccessToken returns the access token and whether one is held.
func (u UserIdentity) AccessToken() (string, bool) {
	return u.accessToken, u.accessToken != ""
}

// RefreshToken returns the refresh token and whether one is held.
func (u UserIdentity) RefreshToken() (string, bool) {
	return u.refreshToken, u.refreshToken != ""
}

// EraseCredentials returns a copy of u without tokens. It does not touch
// any TokenStore.
func (u UserIdentity) EraseCredentials() UserIdentity {
	u.accessToken = ""
	u.refreshToken = ""
	return u
}

// String never includes the tokens.
func (u UserIdentity) String() string {
	return "UserIdentity{id:" + u.id + "}"
}

// LogValue never includes the tokens.
func (u UserIdentity) LogValue() slog.Value {
	_, hasAccess := u.AccessToken()
	return slog.GroupValue(
		slog.String("id", u.id),
		slog.Bool("has_access_token", hasAccess),
	)
}

// MarshalJSON never includes the tokens.
func (u UserIdentity) MarshalJSON() ([]byte, error) {
	roles := u.roles
	if roles == nil {
		roles = []Role{}
	}
	return json.Marshal(struct {
		ID    string `json:"id"`
		Roles []Role `json:"roles"`
	}{
		ID:    u.id,
		Roles: roles,
	})
}
