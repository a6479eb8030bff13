package http_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	webhttp "github.com/aussiebroadwan/zuul/internal/web/http"
	"github.com/aussiebroadwan/zuul/internal/web/metrics"
	"github.com/aussiebroadwan/zuul/internal/web/service"
	"github.com/aussiebroadwan/zuul/internal/web/session"
	"github.com/aussiebroadwan/zuul/pkg/zuul"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCode     = "good-code"
	testUsername = "novakj"
)

// fixture runs the web app against a fake Identity Provider that also
// serves the Usermap API under /usermap.
type fixture struct {
	app    *httptest.Server
	idp    *httptest.Server
	client *http.Client

	// expired makes Usermap reject the first access token as expired.
	expired       atomic.Bool
	refreshes     atomic.Int32
	usermapCalls  atomic.Int32
	lastUsermapAt atomic.Value
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+zuul.TokenPath, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")

		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			if r.PostForm.Get("code") != testCode {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"error":"invalid_grant","error_description":"Invalid authorization code"}`)
				return
			}
			_, _ = io.WriteString(w, `{"access_token":"at-1","refresh_token":"rt-1","token_type":"bearer","expires_in":3600}`)
		case "refresh_token":
			f.refreshes.Add(1)
			_, _ = io.WriteString(w, `{"access_token":"at-2","refresh_token":"rt-2","token_type":"bearer","expires_in":3600}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"unsupported_grant_type"}`)
		}
	})
	mux.HandleFunc("GET "+zuul.TokenInfoPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"user_id":"`+testUsername+`","scope":["`+zuul.ScopeTokenInfo+`"]}`)
	})
	mux.HandleFunc("GET /usermap/people/{username}", func(w http.ResponseWriter, r *http.Request) {
		f.usermapCalls.Add(1)
		auth := r.Header.Get("Authorization")
		f.lastUsermapAt.Store(auth)
		w.Header().Set("Content-Type", "application/json")

		if auth == "Bearer at-1" && f.expired.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"invalid_token","error_description":"The access token expired"}`)
			return
		}
		if r.PathValue("username") == "nobody" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"username":"`+r.PathValue("username")+`","firstName":"Jan","lastName":"Novak"}`)
	})
	f.idp = httptest.NewServer(mux)
	t.Cleanup(f.idp.Close)

	provider := zuul.NewClient(zuul.Config{
		BaseURL:      f.idp.URL,
		ClientID:     "web-app",
		ClientSecret: "s3cret",
		RedirectURI:  "http://app.test/auth/zuul/check",
	})

	m := metrics.New()
	tokens := &service.SessionTokenStore{Provider: provider, Metrics: m}

	codec, err := session.NewCookieCodec([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	require.NoError(t, err)
	sessions := session.NewManager(session.NewMemoryStore(), codec, time.Hour, session.CookieOptions{})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := webhttp.NewRouter("test", sessions, logger)
	router.Metrics = m
	router.Tokens = tokens
	router.Profiles = service.NewProfileClient(f.idp.URL+"/usermap", tokens, m)
	router.Authenticator = &service.Authenticator{
		Provider:  provider,
		Tokens:    tokens,
		Metrics:   m,
		LoginPath: "/",
	}
	router.ApplyRoutes()

	f.app = httptest.NewServer(router)
	t.Cleanup(f.app.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	f.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return f
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, f.app.URL+path, nil)
	require.NoError(t, err)

	resp, err := f.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (f *fixture) sessionCookie(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(f.app.URL)
	require.NoError(t, err)
	for _, c := range f.client.Jar.Cookies(u) {
		if c.Name == session.DefaultCookieName {
			return c.Value
		}
	}
	return ""
}

// startLogin follows /auth/login and returns the state sent to the IdP.
func (f *fixture) startLogin(t *testing.T, path string) string {
	t.Helper()
	resp, _ := f.get(t, path)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, zuul.AuthorizationPath, location.Path)
	require.Equal(t, "web-app", location.Query().Get("client_id"))

	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	state := f.startLogin(t, "/auth/login")

	resp, _ := f.get(t, "/auth/zuul/check?code="+testCode+"&state="+url.QueryEscape(state))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))
}

func TestLoginFlow(t *testing.T) {
	f := newFixture(t)

	// Protected page starts the flow and remembers where the user was going.
	state := f.startLogin(t, "/user")
	before := f.sessionCookie(t)
	require.NotEmpty(t, before)

	resp, _ := f.get(t, "/auth/zuul/check?code="+testCode+"&state="+url.QueryEscape(state))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/user", resp.Header.Get("Location"))
	assert.NotEqual(t, before, f.sessionCookie(t), "session id must change on login")

	resp, body := f.get(t, "/user")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, testUsername)
	assert.Contains(t, body, "Jan")
	assert.NotContains(t, body, "at-1", "raw token must not be rendered")
	assert.Equal(t, "Bearer at-1", f.lastUsermapAt.Load())

	// Logged in users are not sent to the IdP again.
	resp, _ = f.get(t, "/auth/login")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/user", resp.Header.Get("Location"))
}

func TestCallbackStateMismatch(t *testing.T) {
	f := newFixture(t)
	f.startLogin(t, "/auth/login")

	resp, _ := f.get(t, "/auth/zuul/check?code="+testCode+"&state=forged")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body := f.get(t, "/")
	assert.Contains(t, body, "InvalidStateError")

	// The error is shown once.
	_, body = f.get(t, "/")
	assert.NotContains(t, body, "InvalidStateError")

	resp, _ = f.get(t, "/api/v1/me/profile")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCallbackReplayIsRejected(t *testing.T) {
	f := newFixture(t)
	state := f.startLogin(t, "/auth/login")

	_, _ = f.get(t, "/auth/zuul/check?code=bad-code&state="+url.QueryEscape(state))
	_, body := f.get(t, "/")
	assert.Contains(t, body, "IdentityProviderError")

	// The state was consumed by the failed attempt.
	_, _ = f.get(t, "/auth/zuul/check?code="+testCode+"&state="+url.QueryEscape(state))
	_, body = f.get(t, "/")
	assert.Contains(t, body, "InvalidStateError")
}

func TestCallbackProviderError(t *testing.T) {
	f := newFixture(t)
	state := f.startLogin(t, "/auth/login")

	resp, _ := f.get(t, "/auth/zuul/check?error=access_denied&error_description=User+denied+access&state="+url.QueryEscape(state))
	require.Equal(t, http.StatusFound, resp.StatusCode)

	_, body := f.get(t, "/")
	assert.Contains(t, body, "IdentityProviderError: User denied access")
}

func TestProfileAPI(t *testing.T) {
	f := newFixture(t)

	resp, body := f.get(t, "/api/v1/me/profile")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var errResp webhttp.ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &errResp))
	assert.Equal(t, "login_required", errResp.Error)

	f.login(t)

	resp, body = f.get(t, "/api/v1/me/profile")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "{\n    \"username\": \"novakj\",\n    \"firstName\": \"Jan\",\n    \"lastName\": \"Novak\"\n}", body)

	resp, body = f.get(t, "/api/v1/people/svobodap")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"username": "svobodap"`)

	resp, _ = f.get(t, "/api/v1/people/nobody")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProfileAPIRefreshesExpiredToken(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.expired.Store(true)

	resp, _ := f.get(t, "/api/v1/me/profile")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), f.refreshes.Load())
	assert.Equal(t, int32(2), f.usermapCalls.Load())
	assert.Equal(t, "Bearer at-2", f.lastUsermapAt.Load())

	// The rotated pair was persisted, so no further refresh happens.
	resp, _ = f.get(t, "/api/v1/me/profile")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), f.refreshes.Load())
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	resp, _ := f.get(t, "/auth/logout")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, _ = f.get(t, "/api/v1/me/profile")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/livez", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			resp, body := f.get(t, path)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var health webhttp.HealthResponse
			require.NoError(t, json.Unmarshal([]byte(body), &health))
			assert.Equal(t, "ok", health.Status)
			assert.Equal(t, "test", health.Version)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	resp, body := f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `zuul_logins_total{outcome="success"} 1`)
	assert.True(t, strings.Contains(body, `zuul_http_request_duration_seconds_count{code="302",route="auth_zuul_check"} 1`))
}
