// Package slogx configures the structured logger of zuul-web and carries
// request scoped loggers through a context.
package slogx

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// DefaultService is logged when Config.Service is empty.
const DefaultService = "zuul-web"

// redacted replaces the value of every attribute named in secretKeys.
const redacted = "[REDACTED]"

// secretKeys are attribute keys whose values must never reach the output,
// whatever the call site passed. Token pairs and identities redact
// themselves; this catches raw strings logged under an OAuth parameter name.
var secretKeys = map[string]struct{}{
	"access_token":   {},
	"refresh_token":  {},
	"client_secret":  {},
	"session_secret": {},
	"authorization":  {},
	"code":           {},
	"state":          {},
}

type Config struct {
	Service string // defaults to DefaultService
	Version string
	Env     string // "dev" adds source locations
	Level   string // "debug", "info", "warn" or "error"; info otherwise
	Format  string // "text" or "json"; json otherwise

	// Output defaults to os.Stdout.
	Output io.Writer
}

// New builds the service logger from cfg and installs it as slog.Default,
// so code running outside a request logs with the same attributes.
func New(cfg Config) *slog.Logger {
	if cfg.Service == "" {
		cfg.Service = DefaultService
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{
		AddSource:   cfg.Env == "dev",
		Level:       parseLevel(cfg.Level),
		ReplaceAttr: redactSecrets,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler).With(
		"service", cfg.Service,
		"version", cfg.Version,
		"env", cfg.Env,
	)

	slog.SetDefault(logger)
	return logger
}

func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	if _, ok := secretKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}
	return a
}

func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
