package service

import (
	"context"

	"github.com/aussiebroadwan/zuul/internal/web/domain"
	"github.com/aussiebroadwan/zuul/internal/web/metrics"
	"github.com/aussiebroadwan/zuul/internal/web/session"
	"github.com/aussiebroadwan/zuul/pkg/cryptox"
	"github.com/aussiebroadwan/zuul/pkg/slogx"
)

// Session keys holding the token pair.
const (
	SessionKeyAccessToken  = "oauth2.access_token"
	SessionKeyRefreshToken = "oauth2.refresh_token"
)

// TokenStore keeps the token pair of the user of one session.
type TokenStore interface {
	// Save replaces the stored pair. A pair without a refresh token clears
	// any previously stored refresh token.
	Save(ctx context.Context, sess *session.Session, user domain.UserIdentity, pair domain.TokenPair) error

	// Get returns the stored pair, or nil if none is stored.
	Get(ctx context.Context, sess *session.Session, user domain.UserIdentity) (*domain.TokenPair, error)

	// Refresh trades the stored refresh token for a new pair and stores it.
	// The Identity Provider is contacted at most once per call.
	Refresh(ctx context.Context, sess *session.Session, user domain.UserIdentity) (domain.TokenPair, error)
}

// SessionTokenStore is a TokenStore backed by the browser session.
type SessionTokenStore struct {
	Provider IdentityProvider
	Metrics  *metrics.Metrics
}

var _ TokenStore = (*SessionTokenStore)(nil)

func (s *SessionTokenStore) Save(_ context.Context, sess *session.Session, _ domain.UserIdentity, pair domain.TokenPair) error {
	if pair.IsZero() {
		return domain.ErrEmptyAccessToken
	}

	sess.Set(SessionKeyAccessToken, pair.AccessToken())
	if rt, ok := pair.RefreshToken(); ok {
		sess.Set(SessionKeyRefreshToken, rt)
	} else {
		sess.Delete(SessionKeyRefreshToken)
	}
	return nil
}

func (s *SessionTokenStore) Get(_ context.Context, sess *session.Session, _ domain.UserIdentity) (*domain.TokenPair, error) {
	at, ok := sess.Get(SessionKeyAccessToken)
	if !ok || at == "" {
		return nil, nil
	}
	rt, _ := sess.Get(SessionKeyRefreshToken)

	pair, err := domain.NewTokenPair(at, rt)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

func (s *SessionTokenStore) Refresh(ctx context.Context, sess *session.Session, user domain.UserIdentity) (domain.TokenPair, error) {
	log := slogx.FromContext(ctx).With("user", user.ID())

	current, err := s.Get(ctx, sess, user)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if current == nil {
		return domain.TokenPair{}, ErrNoToken
	}
	refreshToken, ok := current.RefreshToken()
	if !ok {
		return domain.TokenPair{}, ErrNoRefreshToken
	}

	tok, err := s.Provider.RefreshToken(ctx, refreshToken)
	if err != nil {
		s.Metrics.ObserveRefresh(metrics.OutcomeFailure)
		log.Warn("token refresh rejected",
			"refresh_token_fp", cryptox.FingerprintToken(refreshToken),
			"err", err,
		)
		return domain.TokenPair{}, &RefreshFailedError{Err: err}
	}

	pair, err := domain.NewTokenPair(tok.AccessToken, tok.RefreshToken)
	if err != nil {
		s.Metrics.ObserveRefresh(metrics.OutcomeFailure)
		return domain.TokenPair{}, &RefreshFailedError{Err: err}
	}
	if err := s.Save(ctx, sess, user, pair); err != nil {
		return domain.TokenPair{}, err
	}

	s.Metrics.ObserveRefresh(metrics.OutcomeSuccess)
	log.Info("access token refreshed", "tokens", pair)
	return pair, nil
}
