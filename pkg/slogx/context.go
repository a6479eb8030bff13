package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithContext returns ctx carrying logger.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request logger, or slog.Default outside a request.
func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithSessionID tags the contextual logger with the browser session id.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	l := FromContext(ctx)
	return WithContext(ctx, l.With("session_id", sessionID))
}
