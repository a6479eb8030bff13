package http

import (
	"net/http"

	"github.com/aussiebroadwan/zuul/internal/web/service"
	"github.com/aussiebroadwan/zuul/internal/web/session"
	"github.com/aussiebroadwan/zuul/pkg/cryptox"
	"github.com/aussiebroadwan/zuul/pkg/slogx"
)

// PageHandler serves the browser pages.
type PageHandler struct {
	Authenticator *service.Authenticator
	Tokens        service.TokenStore
	Profiles      *service.ProfileClient
}

// HandleIndex shows the login link, or who is logged in, along with the
// error of the last failed login.
func (h *PageHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)

	data := pageData{}
	data.Error, _ = h.Authenticator.LastError(sess)
	data.User, _ = h.Authenticator.CurrentUser(ctx, sess)

	render(w, r, http.StatusOK, "index", data)
}

// HandleUser shows the logged in user with their Usermap profile.
func (h *PageHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	user, _ := UserFromContext(ctx)

	data := pageData{User: user}
	code := http.StatusOK

	// Fetch first: a refresh during the request replaces the stored pair.
	profile, err := h.Profiles.FetchProfile(ctx, sess, user, user.ID())
	if err != nil {
		slogx.FromContext(ctx).Warn("failed to load profile", "kind", service.ErrorKind(err), "err", err)
		data.Error = service.FormatError(err)
		code = http.StatusBadGateway
	}
	data.Profile = profile

	if pair, err := h.Tokens.Get(ctx, sess, user); err == nil && pair != nil {
		data.TokenFingerprint = cryptox.FingerprintToken(pair.AccessToken())
	}

	render(w, r, code, "user", data)
}
