// Package session provides server-side browser sessions: a signed cookie
// carries the session id and the values live in a Store.
package session

import (
	"context"
	"maps"
)

// Session is the key/value bag of one browser for the duration of a
// request. It is not safe for concurrent use.
type Session struct {
	id     string
	values map[string]string

	isNew     bool
	dirty     bool
	destroyed bool
	renew     bool // loaded from the store; lifetime is extended on commit
}

// New returns an empty session with the given id.
func New(id string) *Session {
	return &Session{id: id, values: map[string]string{}, isNew: true}
}

func load(id string, values map[string]string) *Session {
	if values == nil {
		values = map[string]string{}
	}
	return &Session{id: id, values: values}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Get returns the value stored under key.
func (s *Session) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key.
func (s *Session) Set(key, value string) {
	if cur, ok := s.values[key]; ok && cur == value {
		return
	}
	s.values[key] = value
	s.dirty = true
}

// Delete removes key. Deleting a missing key is a no-op.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// Pop returns the value under key and removes it.
func (s *Session) Pop(key string) (string, bool) {
	v, ok := s.values[key]
	if ok {
		s.Delete(key)
	}
	return v, ok
}

// Values returns a copy of all stored values.
func (s *Session) Values() map[string]string { return maps.Clone(s.values) }

// IsNew reports whether the session was created during this request.
func (s *Session) IsNew() bool { return s.isNew }

// Dirty reports whether the session changed since it was loaded.
func (s *Session) Dirty() bool { return s.dirty }

// Destroyed reports whether the session was invalidated.
func (s *Session) Destroyed() bool { return s.destroyed }

type ctxKey struct{}

// WithContext attaches s to ctx.
func WithContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached by the Manager middleware, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
