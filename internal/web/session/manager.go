package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/zuul/pkg/httpx"
	"github.com/aussiebroadwan/zuul/pkg/idx"
	"github.com/aussiebroadwan/zuul/pkg/slogx"
)

// DefaultCookieName is the name of the session cookie.
const DefaultCookieName = "zuul_session"

// Manager loads the session of every request from the cookie and store, and
// persists it after the handler ran.
type Manager struct {
	Store  Store
	Codec  *CookieCodec
	TTL    time.Duration
	Cookie CookieOptions
}

// CookieOptions controls the attributes of the session cookie.
type CookieOptions struct {
	Name   string
	Path   string
	Secure bool
}

// NewManager returns a Manager with cookie defaults applied.
func NewManager(store Store, codec *CookieCodec, ttl time.Duration, cookie CookieOptions) *Manager {
	if cookie.Name == "" {
		cookie.Name = DefaultCookieName
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &Manager{
		Store:  store,
		Codec:  codec,
		TTL:    ttl,
		Cookie: cookie,
	}
}

// Middleware attaches the request's session to the context. A session that
// is missing, expired or carries a forged cookie is replaced by a new one.
func (m *Manager) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess, err := m.load(ctx, r)
			if err != nil {
				slogx.FromContext(ctx).Error("failed to load session", "err", err)
				httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"error":             "session_unavailable",
					"error_description": "session storage is unavailable",
				})
				return
			}

			// The cookie is reissued on every request so that the TTL is
			// an idle timeout rather than an absolute lifetime.
			if err := m.setCookie(w, sess.ID()); err != nil {
				slogx.FromContext(ctx).Error("failed to issue session cookie", "err", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			ctx = WithContext(ctx, sess)
			ctx = slogx.WithSessionID(ctx, sess.ID())
			next.ServeHTTP(w, r.WithContext(ctx))

			if err := m.Commit(ctx, sess); err != nil {
				slogx.FromContext(ctx).Error("failed to save session", "err", err)
			}
		})
	}
}

func (m *Manager) load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.Cookie.Name)
	if err != nil {
		return New(idx.New().String()), nil
	}

	id, err := m.Codec.Decode(cookie.Value)
	if err != nil {
		slogx.FromContext(ctx).Debug("discarding session cookie", "err", err)
		return New(idx.New().String()), nil
	}

	values, err := m.Store.Load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return New(idx.New().String()), nil
	}
	if err != nil {
		return nil, err
	}
	sess := load(id, values)
	sess.renew = true
	return sess, nil
}

// Commit persists sess if it changed, and extends the lifetime of a session
// loaded from the store even when it did not. Handlers that redirect before
// the middleware returns may call it early; a second call is a no-op.
func (m *Manager) Commit(ctx context.Context, sess *Session) error {
	if sess.destroyed || !(sess.dirty || sess.renew) {
		return nil
	}
	if err := m.Store.Save(ctx, sess.id, sess.values, m.TTL); err != nil {
		return err
	}
	sess.dirty = false
	sess.renew = false
	sess.isNew = false
	return nil
}

// Regenerate moves sess to a fresh id and issues a new cookie. It must be
// called before the response header is written.
func (m *Manager) Regenerate(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	oldID := sess.id
	sess.id = idx.New().String()
	sess.dirty = true

	if err := m.setCookie(w, sess.id); err != nil {
		return err
	}
	if !sess.isNew {
		if err := m.Store.Delete(ctx, oldID); err != nil {
			return err
		}
	}
	return nil
}

// Destroy removes sess from the store and expires the cookie. It must be
// called before the response header is written.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	sess.destroyed = true
	sess.values = map[string]string{}

	http.SetCookie(w, &http.Cookie{
		Name:     m.Cookie.Name,
		Value:    "",
		Path:     m.Cookie.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return m.Store.Delete(ctx, sess.id)
}

func (m *Manager) setCookie(w http.ResponseWriter, id string) error {
	value, err := m.Codec.Encode(id)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.Cookie.Name,
		Value:    value,
		Path:     m.Cookie.Path,
		MaxAge:   int(m.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
