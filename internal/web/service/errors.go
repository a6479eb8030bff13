package service

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/zuul/pkg/zuul"
)

var (
	// ErrNoToken is returned when the user has no access token stored.
	ErrNoToken = errors.New("user does not have an OAuth 2.0 Access Token")

	// ErrNoRefreshToken is returned when a refresh is needed but the stored
	// pair carries no refresh token.
	ErrNoRefreshToken = errors.New("user does not have an OAuth 2.0 Refresh Token")

	// ErrInvalidState is returned when the callback state does not match the
	// one issued by Start.
	ErrInvalidState = errors.New("invalid OAuth 2.0 state parameter")

	// ErrMissingCode is returned when the callback carries neither a code nor
	// an error.
	ErrMissingCode = errors.New("no authorization code in the callback request")

	// ErrMissingUsername is returned when a user is looked up by an empty name.
	ErrMissingUsername = errors.New("username must not be empty")
)

// RefreshFailedError wraps an Identity Provider failure during a refresh.
type RefreshFailedError struct {
	Err error
}

func (e *RefreshFailedError) Error() string {
	return fmt.Sprintf("could not refresh OAuth 2.0 Access Token: %v", e.Err)
}

func (e *RefreshFailedError) Unwrap() error { return e.Err }

// UnexpectedResponseError is returned when the Usermap API answers with a
// status other than 200 after any retry.
type UnexpectedResponseError struct {
	StatusCode int
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("Usermap API returned an unexpected response code %d", e.StatusCode)
}

// InvalidResponseBodyError is returned when a 200 response from the Usermap
// API is not valid JSON.
type InvalidResponseBodyError struct {
	Err error
}

func (e *InvalidResponseBodyError) Error() string {
	return fmt.Sprintf("Usermap API returned an invalid JSON body: %v", e.Err)
}

func (e *InvalidResponseBodyError) Unwrap() error { return e.Err }

// AuthenticationFailedError is returned by Authenticator.Authenticate and
// wraps the underlying cause.
type AuthenticationFailedError struct {
	Err error
}

func (e *AuthenticationFailedError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthenticationFailedError) Unwrap() error { return e.Err }

// ErrorKind names the most specific known error in err's chain, for display
// and logging. Unknown errors are reported as "Error".
func ErrorKind(err error) string {
	kind, _ := classify(err)
	return kind
}

// FormatError renders err as "<Kind>: <message>" where message belongs to
// the error ErrorKind picked.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	kind, cause := classify(err)
	return kind + ": " + cause.Error()
}

func classify(err error) (string, error) {
	var (
		idpErr       *zuul.IdentityProviderError
		ownerErr     *zuul.InvalidResourceOwnerError
		transportErr *zuul.TransportError
		refreshErr   *RefreshFailedError
		statusErr    *UnexpectedResponseError
		bodyErr      *InvalidResponseBodyError
		authErr      *AuthenticationFailedError
	)

	switch {
	case errors.As(err, &idpErr):
		return "IdentityProviderError", idpErr
	case errors.As(err, &ownerErr):
		return "InvalidResourceOwnerError", ownerErr
	case errors.Is(err, zuul.ErrMissingAccessToken):
		return "IdentityProviderError", zuul.ErrMissingAccessToken
	case errors.As(err, &transportErr):
		return "TransportError", transportErr
	case errors.Is(err, ErrInvalidState):
		return "InvalidStateError", ErrInvalidState
	case errors.Is(err, ErrMissingCode):
		return "MissingAuthorizationCodeError", ErrMissingCode
	case errors.Is(err, ErrNoRefreshToken):
		return "NoRefreshTokenError", ErrNoRefreshToken
	case errors.Is(err, ErrNoToken):
		return "NoTokenError", ErrNoToken
	case errors.As(err, &refreshErr):
		return "RefreshFailedError", refreshErr
	case errors.As(err, &statusErr):
		return "UnexpectedResponseError", statusErr
	case errors.As(err, &bodyErr):
		return "InvalidResponseBodyError", bodyErr
	case errors.As(err, &authErr):
		return "AuthenticationFailedError", authErr
	default:
		return "Error", err
	}
}
