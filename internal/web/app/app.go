package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webhttp "github.com/aussiebroadwan/zuul/internal/web/http"
	"github.com/aussiebroadwan/zuul/internal/web/metrics"
	"github.com/aussiebroadwan/zuul/internal/web/service"
	"github.com/aussiebroadwan/zuul/internal/web/session"
	"github.com/aussiebroadwan/zuul/pkg/cryptox"
	"github.com/aussiebroadwan/zuul/pkg/httpx"
	"github.com/aussiebroadwan/zuul/pkg/slogx"
	"github.com/aussiebroadwan/zuul/pkg/zuul"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// HKDF purposes binding each key derived from SESSION_SECRET to its use.
const (
	cookieKeyPurpose = "zuul session cookie v1"
	storeKeyPurpose  = "zuul session store v1"
)

// Application wires the login web app together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store       session.Store
	housekeeper *session.Housekeeper // memory backend only

	metrics  *metrics.Metrics
	provider *zuul.Client

	server *http.Server
	router *webhttp.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "zuul-web",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.New(),
	}

	if cfg.GeneratedSecret {
		app.logger.Warn("SESSION_SECRET not set, using a random secret; sessions will not survive a restart")
	}

	if err := app.initSessions(context.Background()); err != nil {
		return nil, err
	}
	if err := app.initHTTP(); err != nil {
		_ = app.store.Close()
		return nil, err
	}

	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	if app.housekeeper != nil {
		app.housekeeper.Start()
	}

	app.logger.Info("zuul web starting", "port", app.cfg.Port, "version", BuildVersion, "sessions", app.cfg.SessionBackend)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down zuul web...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeeper != nil {
		app.housekeeper.Stop()
	}

	if err := app.store.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
		return err
	}

	app.logger.Info("zuul web stopped")
	return nil
}

// initSessions opens the configured session backend.
func (app *Application) initSessions(ctx context.Context) error {
	switch app.cfg.SessionBackend {
	case SessionBackendRedis:
		redisCfg := session.RedisConfig{
			Addr:      app.cfg.RedisAddr,
			Password:  app.cfg.RedisPassword,
			DB:        app.cfg.RedisDB,
			KeyPrefix: app.cfg.RedisKeyPrefix,
		}
		if app.cfg.SessionEncrypt {
			key, err := cryptox.DeriveKey([]byte(app.cfg.SessionSecret), storeKeyPurpose, cryptox.SealKeySize)
			if err != nil {
				return fmt.Errorf("failed to derive session store key: %w", err)
			}
			if redisCfg.Sealer, err = cryptox.NewSealer(key); err != nil {
				return err
			}
		}

		store, err := session.NewRedisStore(ctx, redisCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize session store: %w", err)
		}
		app.store = store
	default:
		store := session.NewMemoryStore()
		app.store = store
		app.housekeeper = session.NewHousekeeper(store, app.logger, app.cfg.SessionSweepInterval)
	}

	app.logger.Info("session store ready", "backend", app.cfg.SessionBackend)
	return nil
}

// initHTTP builds the services, router and server.
func (app *Application) initHTTP() error {
	key, err := cryptox.DeriveKey([]byte(app.cfg.SessionSecret), cookieKeyPurpose, 32)
	if err != nil {
		return fmt.Errorf("failed to derive cookie key: %w", err)
	}
	codec, err := session.NewCookieCodec(key, app.cfg.SessionTTL)
	if err != nil {
		return err
	}
	sessions := session.NewManager(app.store, codec, app.cfg.SessionTTL, session.CookieOptions{
		Name:   app.cfg.SessionCookieName,
		Secure: app.cfg.SessionCookieSecure,
	})

	app.provider = zuul.NewClient(zuul.Config{
		BaseURL:      app.cfg.ZuulBaseURL,
		ClientID:     app.cfg.ZuulClientID,
		ClientSecret: app.cfg.ZuulClientSecret,
		RedirectURI:  app.cfg.ZuulRedirectURI,
		HTTPClient:   &http.Client{Timeout: app.cfg.HTTPClientTimeout},
	})

	tokens := &service.SessionTokenStore{
		Provider: app.provider,
		Metrics:  app.metrics,
	}

	profiles := service.NewProfileClient(app.cfg.UsermapBaseURL, tokens, app.metrics)
	profiles.HTTPClient.Timeout = app.cfg.HTTPClientTimeout

	router := webhttp.NewRouter(BuildVersion, sessions, app.logger)
	router.Metrics = app.metrics
	router.Tokens = tokens
	router.Profiles = profiles
	router.Authenticator = &service.Authenticator{
		Provider:  app.provider,
		Tokens:    tokens,
		Metrics:   app.metrics,
		Scopes:    app.cfg.ZuulScopes,
		LoginPath: "/",
		Stateless: app.cfg.ZuulStateless,
	}
	router.RateLimits = rateLimits(app.cfg)
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}

// rateLimits applies the per-minute overrides from cfg.
func rateLimits(cfg Config) webhttp.RateLimits {
	limits := webhttp.DefaultRateLimits()
	if cfg.RateLimitLoginRequests > 0 {
		limits.Login = httpx.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimitLoginRequests,
			Window:            time.Minute,
			Burst:             cfg.RateLimitLoginRequests,
		}
	}
	if cfg.RateLimitAPIRequests > 0 {
		limits.API = httpx.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimitAPIRequests,
			Window:            time.Minute,
			Burst:             max(1, cfg.RateLimitAPIRequests/3),
		}
	}
	return limits
}
