package zuul

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// FetchResourceOwner resolves an access token to the user it belongs to.
func (c *Client) FetchResourceOwner(ctx context.Context, accessToken string) (*ResourceOwner, error) {
	endpoint := c.BaseURL + TokenInfoPath + "?" + url.Values{"token": {accessToken}}.Encode()
	// Keep the token out of error messages.
	redacted := c.BaseURL + TokenInfoPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Op: "tokeninfo", URL: redacted, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// *url.Error carries the full URL including the token.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, &TransportError{Op: "tokeninfo", URL: redacted, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "tokeninfo", URL: redacted, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	success := resp.StatusCode >= 200 && resp.StatusCode <= 299

	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		if !success {
			return nil, &TransportError{Op: "tokeninfo", URL: redacted, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
		return nil, &InvalidResourceOwnerError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if code, _ := doc["error"].(string); code != "" {
		desc, _ := doc["error_description"].(string)
		return nil, &IdentityProviderError{
			StatusCode:  resp.StatusCode,
			Code:        code,
			Description: desc,
		}
	}

	if !success {
		return nil, &TransportError{Op: "tokeninfo", URL: redacted, StatusCode: resp.StatusCode, Err: errors.New("unexpected status")}
	}

	return newResourceOwner(doc)
}

func newResourceOwner(doc map[string]any) (*ResourceOwner, error) {
	var userID string
	switch v := doc["user_id"].(type) {
	case string:
		userID = v
	case json.Number:
		userID = v.String()
	}
	if userID == "" {
		return nil, &InvalidResourceOwnerError{}
	}

	// Zuul returns an array; RFC 7662 style servers a space separated string.
	var scopes []string
	switch raw := doc["scope"].(type) {
	case []any:
		for _, s := range raw {
			if str, ok := s.(string); ok {
				scopes = append(scopes, str)
			}
		}
	case string:
		scopes = strings.Fields(raw)
	}

	return &ResourceOwner{
		UserID: userID,
		Scopes: scopes,
		Raw:    doc,
	}, nil
}
