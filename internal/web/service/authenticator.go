package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"

	"github.com/aussiebroadwan/zuul/internal/web/domain"
	"github.com/aussiebroadwan/zuul/internal/web/metrics"
	"github.com/aussiebroadwan/zuul/internal/web/session"
	"github.com/aussiebroadwan/zuul/pkg/cryptox"
	"github.com/aussiebroadwan/zuul/pkg/slogx"
	"github.com/aussiebroadwan/zuul/pkg/zuul"
)

// RouteCheck is the name of the callback route the Identity Provider
// redirects back to.
const RouteCheck = "auth_zuul_check"

// Session keys owned by the authenticator.
const (
	SessionKeyState      = "oauth2.state"
	SessionKeyFlowState  = "oauth2.flow"
	SessionKeyUser       = "_security.main.user"
	SessionKeyLastError  = "_security.last_error"
	SessionKeyTargetPath = "_security.main.target_path"
)

// FlowState is the position of a session in the login flow.
type FlowState int

const (
	FlowIdle FlowState = iota
	FlowRedirecting
	FlowAwaitingCallback
	FlowExchanging
	FlowResolved
	FlowFailed
)

var flowStateNames = [...]string{
	FlowIdle:             "idle",
	FlowRedirecting:      "redirecting",
	FlowAwaitingCallback: "awaiting_callback",
	FlowExchanging:       "exchanging",
	FlowResolved:         "resolved",
	FlowFailed:           "failed",
}

func (s FlowState) String() string {
	if s < 0 || int(s) >= len(flowStateNames) {
		return fmt.Sprintf("FlowState(%d)", int(s))
	}
	return flowStateNames[s]
}

func parseFlowState(v string) FlowState {
	for i, name := range flowStateNames {
		if name == v {
			return FlowState(i)
		}
	}
	return FlowIdle
}

// InstructionKind tells the HTTP layer what to do after a flow step.
type InstructionKind int

const (
	// InstructionNone lets the request continue to its handler.
	InstructionNone InstructionKind = iota
	// InstructionRedirect sends the browser to Instruction.Location.
	InstructionRedirect
)

// Instruction is the outcome of a flow step.
type Instruction struct {
	Kind     InstructionKind
	Location string
}

// CallbackParams are the query parameters of the callback request.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// CallbackParamsFromQuery extracts CallbackParams from a callback query.
func CallbackParamsFromQuery(q url.Values) CallbackParams {
	return CallbackParams{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}
}

// Authenticator drives the authorization code flow for one session at a
// time: Start sends the browser to the Identity Provider and Authenticate
// resolves the callback into a UserIdentity.
type Authenticator struct {
	Provider IdentityProvider
	Tokens   TokenStore
	Users    UserProvider
	Metrics  *metrics.Metrics

	// Scopes requested in the authorization URL. Empty means the tokeninfo
	// scope only.
	Scopes []string

	// LoginPath is where failures redirect to.
	LoginPath string

	// Stateless disables the state parameter check.
	Stateless bool
}

// State returns the flow state recorded in sess.
func (a *Authenticator) State(sess *session.Session) FlowState {
	v, _ := sess.Get(SessionKeyFlowState)
	return parseFlowState(v)
}

func (a *Authenticator) setState(sess *session.Session, s FlowState) {
	sess.Set(SessionKeyFlowState, s.String())
}

// Start begins the flow and returns a redirect to the authorization URL.
func (a *Authenticator) Start(ctx context.Context, sess *session.Session) (Instruction, error) {
	a.setState(sess, FlowRedirecting)

	var opts []zuul.AuthURLOption
	if !a.Stateless {
		state, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return Instruction{}, err
		}
		sess.Set(SessionKeyState, state)
		opts = append(opts, zuul.WithState(state))
	}

	location := a.Provider.BuildAuthorizationURL(a.Scopes, opts...)
	a.setState(sess, FlowAwaitingCallback)

	slogx.FromContext(ctx).Debug("redirecting to identity provider", "scopes", a.Scopes)
	return Instruction{Kind: InstructionRedirect, Location: location}, nil
}

// Supports reports whether the named route is the callback route.
func (a *Authenticator) Supports(route string) bool {
	return route == RouteCheck
}

// Authenticate resolves a callback into an identity holding the token pair.
// On success the pair is saved to the TokenStore; on failure the store is
// left untouched and the error is an *AuthenticationFailedError.
func (a *Authenticator) Authenticate(ctx context.Context, sess *session.Session, params CallbackParams) (domain.UserIdentity, error) {
	user, err := a.authenticate(ctx, sess, params)
	if err != nil {
		a.setState(sess, FlowFailed)
		a.Metrics.ObserveLogin(metrics.OutcomeFailure)
		return domain.UserIdentity{}, &AuthenticationFailedError{Err: err}
	}

	a.setState(sess, FlowResolved)
	a.Metrics.ObserveLogin(metrics.OutcomeSuccess)
	return user, nil
}

func (a *Authenticator) authenticate(ctx context.Context, sess *session.Session, params CallbackParams) (domain.UserIdentity, error) {
	if !a.Stateless {
		// The state is single use whatever the outcome.
		expected, ok := sess.Pop(SessionKeyState)
		if !ok || subtle.ConstantTimeCompare([]byte(expected), []byte(params.State)) != 1 {
			return domain.UserIdentity{}, ErrInvalidState
		}
	}

	a.setState(sess, FlowExchanging)

	if params.Error != "" {
		return domain.UserIdentity{}, &zuul.IdentityProviderError{
			Code:        params.Error,
			Description: params.ErrorDescription,
		}
	}
	if params.Code == "" {
		return domain.UserIdentity{}, ErrMissingCode
	}

	tok, err := a.Provider.ExchangeCode(ctx, params.Code)
	if err != nil {
		return domain.UserIdentity{}, err
	}

	owner, err := a.Provider.FetchResourceOwner(ctx, tok.AccessToken)
	if err != nil {
		return domain.UserIdentity{}, err
	}

	user, err := a.Users.LoadUserByIdentifier(ctx, owner.UserID)
	if err != nil {
		return domain.UserIdentity{}, err
	}

	pair, err := domain.NewTokenPair(tok.AccessToken, tok.RefreshToken)
	if err != nil {
		return domain.UserIdentity{}, err
	}
	if err := a.Tokens.Save(ctx, sess, user, pair); err != nil {
		return domain.UserIdentity{}, err
	}

	slogx.FromContext(ctx).Info("user authenticated", "user", user, "tokens", pair)
	return user.WithTokens(pair), nil
}

// OnSuccess records the user in the session and lets the request continue.
func (a *Authenticator) OnSuccess(_ context.Context, sess *session.Session, user domain.UserIdentity) Instruction {
	sess.Set(SessionKeyUser, user.ID())
	sess.Delete(SessionKeyLastError)
	return Instruction{Kind: InstructionNone}
}

// OnFailure records the error for the login page and redirects there.
func (a *Authenticator) OnFailure(ctx context.Context, sess *session.Session, err error) Instruction {
	message := FormatError(err)
	slogx.FromContext(ctx).Warn("authentication failed", "kind", ErrorKind(err), "err", err)

	sess.Set(SessionKeyLastError, message)

	location := a.LoginPath
	if location == "" {
		location = "/"
	}
	return Instruction{Kind: InstructionRedirect, Location: location}
}

// LastError returns and clears the message stored by OnFailure.
func (a *Authenticator) LastError(sess *session.Session) (string, bool) {
	return sess.Pop(SessionKeyLastError)
}

// CurrentUser returns the identity logged in to sess, without tokens.
func (a *Authenticator) CurrentUser(ctx context.Context, sess *session.Session) (domain.UserIdentity, bool) {
	id, ok := sess.Get(SessionKeyUser)
	if !ok {
		return domain.UserIdentity{}, false
	}
	user, err := a.Users.RefreshUser(ctx, domain.NewUserIdentity(id))
	if err != nil {
		return domain.UserIdentity{}, false
	}
	return user, true
}
