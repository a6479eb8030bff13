package zuul

import (
	"strings"

	"golang.org/x/oauth2"
)

type authURLOptions struct {
	state string
}

// AuthURLOption customises a single authorization URL.
type AuthURLOption func(*authURLOptions)

// WithState adds the opaque state parameter echoed back on the callback.
func WithState(state string) AuthURLOption {
	return func(o *authURLOptions) {
		o.state = state
	}
}

// BuildAuthorizationURL returns the URL the browser is sent to in order to
// begin the authorization code flow. An empty scopes slice requests the
// tokeninfo scope only.
//
// Without options the result depends only on the client registration and
// scopes, so equal inputs always produce the same URL. Scopes are joined by
// a space which is encoded as %20.
func (c *Client) BuildAuthorizationURL(scopes []string, opts ...AuthURLOption) string {
	var o authURLOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg := c.oauth
	if len(scopes) > 0 {
		cfg.Scopes = scopes
	}

	raw := cfg.AuthCodeURL(o.state, oauth2.SetAuthURLParam("approval_prompt", "auto"))

	// url.Values encodes a space as "+" and a literal "+" as "%2B", so every
	// remaining "+" in the query is a space.
	base, query, found := strings.Cut(raw, "?")
	if !found {
		return raw
	}
	return base + "?" + strings.ReplaceAll(query, "+", "%20")
}
