package zuul

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ExchangeCode trades an authorization code for a token pair.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	data := url.Values{
		"grant_type": {"authorization_code"},
		"code":       {code},
	}
	if c.oauth.RedirectURL != "" {
		data.Set("redirect_uri", c.oauth.RedirectURL)
	}

	return c.requestToken(ctx, data)
}

// RefreshToken trades a refresh token for a new token pair. The Identity
// Provider may omit the refresh token from the response, in which case
// Token.RefreshToken is empty.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	return c.requestToken(ctx, data)
}

func (c *Client) requestToken(ctx context.Context, data url.Values) (*Token, error) {
	data.Set("client_id", c.oauth.ClientID)
	if c.oauth.ClientSecret != "" {
		data.Set("client_secret", c.oauth.ClientSecret)
	}

	endpoint := c.oauth.Endpoint.TokenURL
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint,
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return nil, &TransportError{Op: "token", URL: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "token", URL: endpoint, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "token", URL: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, &TransportError{Op: "token", URL: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if tokenResp.Error != "" {
		return nil, &IdentityProviderError{
			StatusCode:  resp.StatusCode,
			Code:        tokenResp.Error,
			Description: tokenResp.ErrorDescription,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Op: "token", URL: endpoint, StatusCode: resp.StatusCode, Err: errors.New("unexpected status")}
	}

	if tokenResp.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}

	return &tokenResp.Token, nil
}
