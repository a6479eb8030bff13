package service_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/aussiebroadwan/zuul/internal/web/domain"
	"github.com/aussiebroadwan/zuul/internal/web/service"
	"github.com/aussiebroadwan/zuul/internal/web/service/mocks"
	"github.com/aussiebroadwan/zuul/internal/web/session"
	"github.com/aussiebroadwan/zuul/pkg/zuul"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newAuthenticator(idp service.IdentityProvider) *service.Authenticator {
	return &service.Authenticator{
		Provider:  idp,
		Tokens:    &service.SessionTokenStore{Provider: idp},
		LoginPath: "/",
	}
}

// startedSession returns a session that went through Start, and its state.
func startedSession(t *testing.T, a *service.Authenticator) (*session.Session, string) {
	t.Helper()

	sess := newSession()
	_, err := a.Start(context.Background(), sess)
	require.NoError(t, err)
	state, ok := sess.Get(service.SessionKeyState)
	require.True(t, ok)
	return sess, state
}

func TestAuthenticator_Start(t *testing.T) {
	t.Parallel()

	client := zuul.NewClient(zuul.Config{
		BaseURL:     "https://idp.example",
		ClientID:    "test-client",
		RedirectURI: "https://app.example.com/auth/zuul/check",
	})
	a := newAuthenticator(client)
	a.Scopes = []string{"scope1", "scope2"}

	sess := newSession()
	require.Equal(t, service.FlowIdle, a.State(sess))

	inst, err := a.Start(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, service.InstructionRedirect, inst.Kind)
	require.True(t, strings.HasPrefix(inst.Location, "https://idp.example/oauth/authorize?"))
	require.Contains(t, inst.Location, "scope=scope1%20scope2")
	require.Equal(t, service.FlowAwaitingCallback, a.State(sess))

	state, ok := sess.Get(service.SessionKeyState)
	require.True(t, ok)
	parsed, err := url.Parse(inst.Location)
	require.NoError(t, err)
	require.Equal(t, state, parsed.Query().Get("state"))
}

func TestAuthenticator_StartStateless(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	idp := mocks.NewMockIdentityProvider(ctrl)
	idp.EXPECT().BuildAuthorizationURL(gomock.Nil()).Return("https://idp.example/oauth/authorize?x=1")

	a := newAuthenticator(idp)
	a.Stateless = true

	sess := newSession()
	inst, err := a.Start(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, "https://idp.example/oauth/authorize?x=1", inst.Location)

	_, ok := sess.Get(service.SessionKeyState)
	require.False(t, ok)
}

func TestAuthenticator_Supports(t *testing.T) {
	t.Parallel()

	a := newAuthenticator(nil)
	require.True(t, a.Supports(service.RouteCheck))
	require.False(t, a.Supports("index"))
	require.False(t, a.Supports(""))
}

func TestAuthenticator_Authenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		idp := mocks.NewMockIdentityProvider(ctrl)
		idp.EXPECT().BuildAuthorizationURL(gomock.Any(), gomock.Any()).Return("https://idp.example/oauth/authorize")
		idp.EXPECT().ExchangeCode(gomock.Any(), "abc").
			Return(&zuul.Token{AccessToken: "at1", RefreshToken: "rt1"}, nil)
		idp.EXPECT().FetchResourceOwner(gomock.Any(), "at1").
			Return(&zuul.ResourceOwner{UserID: "alice"}, nil)

		a := newAuthenticator(idp)
		sess, state := startedSession(t, a)

		user, err := a.Authenticate(ctx, sess, service.CallbackParams{Code: "abc", State: state})
		require.NoError(t, err)
		require.Equal(t, "alice", user.ID())
		require.Equal(t, []domain.Role{domain.RoleUser}, user.Roles())
		at, ok := user.AccessToken()
		require.True(t, ok)
		require.Equal(t, "at1", at)
		require.Equal(t, service.FlowResolved, a.State(sess))

		stored, err := a.Tokens.Get(ctx, sess, user)
		require.NoError(t, err)
		require.Equal(t, mustPair(t, "at1", "rt1"), *stored)

		// The state is single use.
		_, ok = sess.Get(service.SessionKeyState)
		require.False(t, ok)
	})

	t.Run("exchange rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		idp := mocks.NewMockIdentityProvider(ctrl)
		idp.EXPECT().BuildAuthorizationURL(gomock.Any(), gomock.Any()).Return("https://idp.example/oauth/authorize")
		idp.EXPECT().ExchangeCode(gomock.Any(), "bad").
			Return(nil, &zuul.IdentityProviderError{Code: zuul.ErrorCodeInvalidGrant, Description: "Invalid authorization code"})
		idp.EXPECT().FetchResourceOwner(gomock.Any(), gomock.Any()).Times(0)

		a := newAuthenticator(idp)
		sess, state := startedSession(t, a)

		// A pair from an earlier login must survive the failed callback.
		previous := mustPair(t, "A0", "R0")
		require.NoError(t, a.Tokens.Save(ctx, sess, domain.NewUserIdentity("alice"), previous))

		_, err := a.Authenticate(ctx, sess, service.CallbackParams{Code: "bad", State: state})
		var authErr *service.AuthenticationFailedError
		require.ErrorAs(t, err, &authErr)
		var idpErr *zuul.IdentityProviderError
		require.ErrorAs(t, err, &idpErr)
		require.Equal(t, service.FlowFailed, a.State(sess))

		stored, err := a.Tokens.Get(ctx, sess, domain.NewUserIdentity("alice"))
		require.NoError(t, err)
		require.NotNil(t, stored)
		require.Equal(t, previous, *stored)
	})

	t.Run("resource owner without user id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		idp := mocks.NewMockIdentityProvider(ctrl)
		idp.EXPECT().BuildAuthorizationURL(gomock.Any(), gomock.Any()).Return("https://idp.example/oauth/authorize")
		idp.EXPECT().ExchangeCode(gomock.Any(), "abc").
			Return(&zuul.Token{AccessToken: "at1", RefreshToken: "rt1"}, nil)
		idp.EXPECT().FetchResourceOwner(gomock.Any(), "at1").
			Return(nil, &zuul.InvalidResourceOwnerError{})

		a := newAuthenticator(idp)
		sess, state := startedSession(t, a)

		_, err := a.Authenticate(ctx, sess, service.CallbackParams{Code: "abc", State: state})
		var ownerErr *zuul.InvalidResourceOwnerError
		require.ErrorAs(t, err, &ownerErr)
		require.Equal(t, "InvalidResourceOwnerError", service.ErrorKind(err))

		stored, err := a.Tokens.Get(ctx, sess, domain.NewUserIdentity("alice"))
		require.NoError(t, err)
		require.Nil(t, stored)
	})

	t.Run("state mismatch", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		idp := mocks.NewMockIdentityProvider(ctrl)
		idp.EXPECT().BuildAuthorizationURL(gomock.Any(), gomock.Any()).Return("https://idp.example/oauth/authorize")
		idp.EXPECT().ExchangeCode(gomock.Any(), gomock.Any()).Times(0)

		a := newAuthenticator(idp)
		sess, _ := startedSession(t, a)

		_, err := a.Authenticate(ctx, sess, service.CallbackParams{Code: "abc", State: "forged"})
		require.ErrorIs(t, err, service.ErrInvalidState)

		// The stored state was consumed by the first attempt.
		_, err = a.Authenticate(ctx, sess, service.CallbackParams{Code: "abc", State: "forged"})
		require.ErrorIs(t, err, service.ErrInvalidState)
	})

	t.Run("callback without start", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		idp := mocks.NewMockIdentityProvider(ctrl)

		a := newAuthenticator(idp)
		_, err := a.Authenticate(ctx, newSession(), service.CallbackParams{Code: "abc"})
		require.ErrorIs(t, err, service.ErrInvalidState)
	})

	t.Run("stateless skips state", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		idp := mocks.NewMockIdentityProvider(ctrl)
		idp.EXPECT().ExchangeCode(gomock.Any(), "abc").
			Return(&zuul.Token{AccessToken: "at1"}, nil)
		idp.EXPECT().FetchResourceOwner(gomock.Any(), "at1").
			Return(&zuul.ResourceOwner{UserID: "bob"}, nil)

		a := newAuthenticator(idp)
		a.Stateless = true

		user, err := a.Authenticate(ctx, newSession(), service.CallbackParams{Code: "abc"})
		require.NoError(t, err)
		require.Equal(t, "bob", user.ID())
		_, ok := user.RefreshToken()
		require.False(t, ok)
	})

	t.Run("error returned by identity provider", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		idp := mocks.NewMockIdentityProvider(ctrl)
		idp.EXPECT().ExchangeCode(gomock.Any(), gomock.Any()).Times(0)

		a := newAuthenticator(idp)
		a.Stateless = true

		_, err := a.Authenticate(ctx, newSession(), service.CallbackParams{
			Error:            zuul.ErrorCodeAccessDenied,
			ErrorDescription: "The user denied access",
		})
		require.Equal(t, "IdentityProviderError: The user denied access", service.FormatError(err))
	})

	t.Run("missing code", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		idp := mocks.NewMockIdentityProvider(ctrl)

		a := newAuthenticator(idp)
		a.Stateless = true

		_, err := a.Authenticate(ctx, newSession(), service.CallbackParams{})
		require.ErrorIs(t, err, service.ErrMissingCode)
	})
}

func TestAuthenticator_OnSuccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a := newAuthenticator(nil)
	sess := newSession()
	sess.Set(service.SessionKeyLastError, "stale")

	inst := a.OnSuccess(ctx, sess, domain.NewUserIdentity("alice"))
	require.Equal(t, service.InstructionNone, inst.Kind)

	user, ok := a.CurrentUser(ctx, sess)
	require.True(t, ok)
	require.Equal(t, "alice", user.ID())

	_, ok = a.LastError(sess)
	require.False(t, ok)
}

func TestAuthenticator_OnFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a := newAuthenticator(nil)
	sess := newSession()

	err := &service.AuthenticationFailedError{Err: errors.New("boom")}
	inst := a.OnFailure(ctx, sess, err)
	require.Equal(t, service.InstructionRedirect, inst.Kind)
	require.Equal(t, "/", inst.Location)

	msg, ok := a.LastError(sess)
	require.True(t, ok)
	require.Equal(t, "AuthenticationFailedError: authentication failed: boom", msg)

	_, ok = a.LastError(sess)
	require.False(t, ok, "the error is shown once")
}

func TestAuthenticator_CurrentUserAnonymous(t *testing.T) {
	t.Parallel()

	a := newAuthenticator(nil)
	_, ok := a.CurrentUser(context.Background(), newSession())
	require.False(t, ok)
}

func TestFlowStateString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "awaiting_callback", service.FlowAwaitingCallback.String())
	require.Equal(t, "FlowState(42)", service.FlowState(42).String())
}
