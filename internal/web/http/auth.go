package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/zuul/internal/web/service"
	"github.com/aussiebroadwan/zuul/internal/web/session"
	"github.com/aussiebroadwan/zuul/pkg/slogx"
)

// LoginHandler starts the login flow.
type LoginHandler struct {
	Authenticator *service.Authenticator
	Sessions      *session.Manager
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)

	if _, ok := h.Authenticator.CurrentUser(ctx, sess); ok {
		http.Redirect(w, r, "/user", http.StatusFound)
		return
	}

	inst, err := h.Authenticator.Start(ctx, sess)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to start login", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	follow(w, r, inst, nil, h.Sessions)
}

// HandleCheck runs after Firewall authenticated the callback and sends the
// user back to the page that required the login.
func HandleCheck(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	target, ok := sess.Pop(service.SessionKeyTargetPath)
	if !ok || !isLocalPath(target) {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// isLocalPath rejects absolute and protocol-relative URLs so the target
// path cannot redirect off-site.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}

// LogoutHandler destroys the session, dropping the stored tokens with it.
type LogoutHandler struct {
	Sessions *session.Manager
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Sessions.Destroy(ctx, w, session.FromContext(ctx)); err != nil {
		slogx.FromContext(ctx).Warn("failed to destroy session", "err", err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
