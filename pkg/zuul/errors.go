package zuul

import (
	"errors"
	"fmt"
)

// OAuth 2.0 error codes (RFC 6749, RFC 6750) the Identity Provider and
// resource servers answer with.
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidClient        = "invalid_client"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeUnauthorizedClient   = "unauthorized_client"
	ErrorCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrorCodeInvalidScope         = "invalid_scope"
	ErrorCodeAccessDenied         = "access_denied"
	ErrorCodeServerError          = "server_error"
	ErrorCodeInvalidToken         = "invalid_token"
)

// ErrMissingAccessToken is returned when the token endpoint answers
// successfully but without an access token.
var ErrMissingAccessToken = errors.New("zuul: token response is missing access_token")

// IdentityProviderError is an error reported by the Identity Provider itself,
// either in a JSON body carrying an "error" field or as callback parameters.
type IdentityProviderError struct {
	// StatusCode is the HTTP status of the response, zero for callback errors.
	StatusCode int

	// Code is the OAuth 2.0 error code, e.g. "invalid_grant".
	Code string

	// Description is the optional human readable description.
	Description string
}

// Error returns the description when present and the code otherwise.
func (e *IdentityProviderError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Code
}

// TransportError is a failure below the OAuth 2.0 layer: the request could
// not be sent, or the response could not be read or understood.
type TransportError struct {
	// Op names the interaction, e.g. "token" or "tokeninfo".
	Op string

	URL string

	// StatusCode is the HTTP status when a response was received.
	StatusCode int

	Err error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request to %s failed with status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request to %s failed: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// InvalidResourceOwnerError is returned when the tokeninfo response does not
// identify a user.
type InvalidResourceOwnerError struct {
	Err error
}

func (e *InvalidResourceOwnerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("the resource owner information is missing the \"user_id\" field: %v", e.Err)
	}
	return "the resource owner information is missing the \"user_id\" field"
}

func (e *InvalidResourceOwnerError) Unwrap() error { return e.Err }
