// Package zuul is a client for the Zuul OAuth 2.0 Identity Provider used by
// the Faculty of Information Technology, CTU in Prague.
//
// It covers the three interactions a relying party needs:
//
//   - building the authorization URL the browser is redirected to,
//   - exchanging an authorization code or refresh token for a token pair,
//   - resolving an access token to its resource owner via the tokeninfo endpoint.
//
// Example:
//
//	client := zuul.NewClient(zuul.Config{
//		ClientID:     "my-app",
//		ClientSecret: "secret",
//		RedirectURI:  "https://app.example.com/auth/zuul/check",
//	})
//	url := client.BuildAuthorizationURL(nil, zuul.WithState(state))
//	// ... user authenticates, IdP redirects back with ?code=...
//	tok, err := client.ExchangeCode(ctx, code)
//	owner, err := client.FetchResourceOwner(ctx, tok.AccessToken)
package zuul
