package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/zuul/internal/web/domain"
	"github.com/aussiebroadwan/zuul/internal/web/metrics"
	"github.com/aussiebroadwan/zuul/internal/web/service"
	"github.com/aussiebroadwan/zuul/internal/web/session"
	"github.com/aussiebroadwan/zuul/pkg/httpx"
	"github.com/aussiebroadwan/zuul/pkg/slogx"

	_ "github.com/aussiebroadwan/zuul/api/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Route names.
const (
	RouteIndex   = "index"
	RouteUser    = "user"
	RouteLogin   = "auth_login"
	RouteLogout  = "auth_logout"
	RouteProfile = "api_me_profile"
	RoutePerson  = "api_person"
	RouteLivez   = "livez"
	RouteReadyz  = "readyz"
	RouteMetrics = "metrics"
)

// RateLimits holds the rate limit profile of each route group.
type RateLimits struct {
	Login  httpx.RateLimitConfig
	API    httpx.RateLimitConfig
	Public httpx.RateLimitConfig
}

// DefaultRateLimits returns the httpx default profiles.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Login:  httpx.LoginLimit,
		API:    httpx.APILimit,
		Public: httpx.PublicLimit,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	Sessions      *session.Manager
	Metrics       *metrics.Metrics
	Authenticator *service.Authenticator
	Tokens        service.TokenStore
	Profiles      *service.ProfileClient
	RateLimits    RateLimits
}

func NewRouter(
	buildVersion string,
	sessions *session.Manager,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		Sessions:     sessions,
		RateLimits:   DefaultRateLimits(),
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerPages()
	r.registerAuth()
	r.registerAPI()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Zuul Login Web API
//	@version		0.1.0
//	@description	Web application logging users in through the Zuul OAuth 2.0 Identity Provider
//	@description	and reading their Usermap profile on their behalf.
//	@description
//	@description	API routes are authenticated by the browser session established at /auth/login.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/zuul
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						zuul_session
//	@description				Signed session cookie issued by the login flow.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// route prefixes mw with the route name tag and latency metrics.
func (r *Router) route(name string, h http.Handler, mw ...httpx.Middleware) http.Handler {
	return httpx.Chain(h, append([]httpx.Middleware{
		httpx.WithRoute(name),
		r.Metrics.Middleware(),
	}, mw...)...)
}

// sessionRoute is like route but loads the browser session first.
func (r *Router) sessionRoute(name string, h http.Handler, mw ...httpx.Middleware) http.Handler {
	return r.route(name, h, append([]httpx.Middleware{r.Sessions.Middleware()}, mw...)...)
}

func (r *Router) registerPages() {
	pages := &PageHandler{
		Authenticator: r.Authenticator,
		Tokens:        r.Tokens,
		Profiles:      r.Profiles,
	}

	r.Mux.Handle("GET /{$}", r.sessionRoute(RouteIndex, http.HandlerFunc(pages.HandleIndex)))

	// Browser page: anonymous users are sent through the login flow.
	r.Mux.Handle("GET /user", r.sessionRoute(RouteUser, http.HandlerFunc(pages.HandleUser),
		RequireUser(r.Authenticator, r.Sessions, EntryPointRedirect),
		RequireRole(domain.RoleUser),
		httpx.RateLimitByUser(r.RateLimits.API),
	))
}

func (r *Router) registerAuth() {
	login := &LoginHandler{Authenticator: r.Authenticator, Sessions: r.Sessions}
	r.Mux.Handle("GET /auth/login", r.sessionRoute(RouteLogin, login,
		httpx.RateLimitByIP(r.RateLimits.Login),
	))

	// The firewall authenticates whenever the route is the callback; the
	// handler only runs after a successful login.
	r.Mux.Handle("GET /auth/zuul/check", r.sessionRoute(service.RouteCheck, http.HandlerFunc(HandleCheck),
		httpx.RateLimitByIP(r.RateLimits.Login),
		Firewall(r.Authenticator, r.Sessions),
	))

	logout := &LogoutHandler{Sessions: r.Sessions}
	r.Mux.Handle("GET /auth/logout", r.sessionRoute(RouteLogout, logout))
}

func (r *Router) registerAPI() {
	h := &ProfileHandler{Profiles: r.Profiles}

	secured := []httpx.Middleware{
		RequireUser(r.Authenticator, r.Sessions, EntryPointUnauthorized),
		RequireRole(domain.RoleUser),
		httpx.RateLimitByUser(r.RateLimits.API),
	}

	r.Mux.Handle("GET /api/v1/me/profile", r.sessionRoute(RouteProfile, http.HandlerFunc(h.HandleMe), secured...))
	r.Mux.Handle("GET /api/v1/people/{username}", r.sessionRoute(RoutePerson, http.HandlerFunc(h.HandlePerson), secured...))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", r.route(RouteLivez,
		LivezHandler(r.startTime, r.buildVersion),
		httpx.RateLimitByIP(r.RateLimits.Public),
	))

	r.Mux.Handle("GET /readyz", r.route(RouteReadyz,
		ReadyzHandler(r.startTime, r.buildVersion, r.Sessions.Store),
		httpx.RateLimitByIP(r.RateLimits.Public),
	))

	r.Mux.Handle("GET /metrics", r.route(RouteMetrics, r.Metrics.Handler()))
}
