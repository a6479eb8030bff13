package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Load for unknown or expired sessions.
var ErrNotFound = errors.New("session: not found")

// Store persists session values keyed by session id.
type Store interface {
	// Load returns the values of the session or ErrNotFound.
	Load(ctx context.Context, id string) (map[string]string, error)

	// Save replaces the values of the session and resets its lifetime.
	Save(ctx context.Context, id string, values map[string]string, ttl time.Duration) error

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Sweeper is implemented by stores that do not expire entries on their own.
type Sweeper interface {
	DeleteExpired(ctx context.Context) (int, error)
}
