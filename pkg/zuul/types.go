package zuul

// Token is a successful response from the token endpoint.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// ResourceOwner is the user an access token was issued to, as reported by
// the tokeninfo endpoint.
type ResourceOwner struct {
	// UserID is the username of the resource owner. Never empty.
	UserID string

	// Scopes granted to the access token.
	Scopes []string

	// Raw holds the full tokeninfo document.
	Raw map[string]any
}

// tokenResponse is the union of the success and error shapes the token
// endpoint can answer with.
type tokenResponse struct {
	Token

	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
