package app

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/zuul/pkg/cryptox"
)

// Session backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

type Config struct {
	// Identity Provider
	ZuulBaseURL      string   `env:"ZUUL_BASE_URL"      envDefault:"https://auth.fit.cvut.cz"`
	ZuulClientID     string   `env:"ZUUL_CLIENT_ID"`
	ZuulClientSecret string   `env:"ZUUL_CLIENT_SECRET"`
	ZuulRedirectURI  string   `env:"ZUUL_REDIRECT_URI"`
	ZuulScopes       []string `env:"ZUUL_SCOPES"        envSeparator:","`
	ZuulStateless    bool     `env:"ZUUL_STATELESS"`

	UsermapBaseURL    string        `env:"USERMAP_BASE_URL"    envDefault:"https://kosapi.fit.cvut.cz/usermap/v1"`
	HTTPClientTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT" envDefault:"10s"`

	// Sessions
	SessionBackend       string        `env:"SESSION_BACKEND"        envDefault:"memory"`
	SessionSecret        string        `env:"SESSION_SECRET"`
	SessionTTL           time.Duration `env:"SESSION_TTL"            envDefault:"24h"`
	SessionCookieName    string        `env:"SESSION_COOKIE_NAME"    envDefault:"zuul_session"`
	SessionCookieSecure  bool          `env:"SESSION_COOKIE_SECURE"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"10m"`
	SessionEncrypt       bool          `env:"SESSION_ENCRYPT"        envDefault:"true"`

	RedisAddr      string `env:"REDIS_ADDR"       envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"zuul:"`

	// Requests per minute; zero keeps the httpx profile.
	RateLimitLoginRequests int `env:"RATELIMIT_LOGIN_REQUESTS"`
	RateLimitAPIRequests   int `env:"RATELIMIT_API_REQUESTS"`

	Env                 string        `env:"ENV"                   envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT"            envDefault:"json"`
	Port                int           `env:"PORT"                  envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	// GeneratedSecret is set when SessionSecret was generated for a dev run.
	GeneratedSecret bool `env:"-"`
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return parseConfig(env.Options{})
}

func parseConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = cryptox.MustGenerateToken(cryptox.TokenSize256)
		cfg.GeneratedSecret = true
	}
	return cfg, nil
}

// Validate reports every setting that prevents the app from starting.
func (c Config) Validate() error {
	var errs []error

	if c.ZuulClientID == "" {
		errs = append(errs, errors.New("ZUUL_CLIENT_ID is required"))
	}
	if c.ZuulRedirectURI == "" {
		errs = append(errs, errors.New("ZUUL_REDIRECT_URI is required"))
	}

	switch c.SessionBackend {
	case SessionBackendMemory, SessionBackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend))
	}

	if c.SessionSecret == "" && c.Env != "dev" {
		errs = append(errs, errors.New("SESSION_SECRET is required outside dev"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	return errors.Join(errs...)
}
