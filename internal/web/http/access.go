package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/zuul/internal/web/domain"
	"github.com/aussiebroadwan/zuul/internal/web/service"
	"github.com/aussiebroadwan/zuul/internal/web/session"
	"github.com/aussiebroadwan/zuul/pkg/httpx"
	"github.com/aussiebroadwan/zuul/pkg/slogx"
)

type userCtxKey struct{}

func withUser(ctx context.Context, user domain.UserIdentity) context.Context {
	ctx = context.WithValue(ctx, userCtxKey{}, user)
	return httpx.WithUserID(ctx, user.ID())
}

// UserFromContext returns the identity set by RequireUser or Firewall.
func UserFromContext(ctx context.Context) (domain.UserIdentity, bool) {
	user, ok := ctx.Value(userCtxKey{}).(domain.UserIdentity)
	return user, ok
}

// EntryPoint decides how RequireUser answers anonymous requests.
type EntryPoint int

const (
	// EntryPointRedirect remembers the requested URL and starts the login flow.
	EntryPointRedirect EntryPoint = iota
	// EntryPointUnauthorized answers 401 with a JSON error.
	EntryPointUnauthorized
)

// RequireUser only lets logged in users through. The session middleware
// must run first.
func RequireUser(a *service.Authenticator, sessions *session.Manager, entry EntryPoint) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess := session.FromContext(ctx)

			if user, ok := a.CurrentUser(ctx, sess); ok {
				next.ServeHTTP(w, r.WithContext(withUser(ctx, user)))
				return
			}

			if entry == EntryPointUnauthorized {
				httpx.WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
					Error:            "login_required",
					ErrorDescription: "log in at /auth/login first",
				})
				return
			}

			sess.Set(service.SessionKeyTargetPath, r.URL.RequestURI())
			inst, err := a.Start(ctx, sess)
			if err != nil {
				slogx.FromContext(ctx).Error("failed to start login", "err", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			follow(w, r, inst, next, sessions)
		})
	}
}

// Firewall runs the authenticator on the routes it supports. On success the
// session id is rotated and the request continues; on failure the browser
// is redirected to the login page.
func Firewall(a *service.Authenticator, sessions *session.Manager) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !a.Supports(httpx.RouteFromContext(ctx)) {
				next.ServeHTTP(w, r)
				return
			}

			sess := session.FromContext(ctx)
			user, err := a.Authenticate(ctx, sess, service.CallbackParamsFromQuery(r.URL.Query()))
			if err != nil {
				follow(w, r, a.OnFailure(ctx, sess, err), next, sessions)
				return
			}

			if err := sessions.Regenerate(ctx, w, sess); err != nil {
				slogx.FromContext(ctx).Error("failed to rotate session", "err", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			inst := a.OnSuccess(ctx, sess, user)
			follow(w, r.WithContext(withUser(ctx, user.EraseCredentials())), inst, next, sessions)
		})
	}
}

// follow carries out an authenticator instruction.
func follow(w http.ResponseWriter, r *http.Request, inst service.Instruction, next http.Handler, sessions *session.Manager) {
	switch inst.Kind {
	case service.InstructionRedirect:
		ctx := r.Context()
		if err := sessions.Commit(ctx, session.FromContext(ctx)); err != nil {
			slogx.FromContext(ctx).Error("failed to save session", "err", err)
		}
		http.Redirect(w, r, inst.Location, http.StatusFound)
	default:
		next.ServeHTTP(w, r)
	}
}

// RequireRole answers 403 unless the user attached by RequireUser holds
// role. It must run after RequireUser.
func RequireRole(role domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || !user.HasRole(role) {
				httpx.WriteJSON(w, http.StatusForbidden, ErrorResponse{
					Error:            "insufficient_role",
					ErrorDescription: "requires role " + string(role),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
