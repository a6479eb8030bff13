package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/zuul/pkg/cryptox"
)

// Default timeouts for Redis operations.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

// RedisConfig holds the connection settings of a RedisStore.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int

	// KeyPrefix namespaces keys, e.g. "zuul:".
	KeyPrefix string

	// Sealer, when set, encrypts session values at rest.
	Sealer *cryptox.Sealer

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RedisStore keeps sessions in Redis so they survive restarts and are
// shared between replicas. Expiry is handled by Redis key TTLs.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	sealer    *cryptox.Sealer
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, cfg.KeyPrefix).WithSealer(cfg.Sealer), nil
}

// NewRedisStoreWithClient wraps an existing client, e.g. one pointing at
// miniredis in tests.
func NewRedisStoreWithClient(client redis.UniversalClient, keyPrefix string) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// WithSealer encrypts values with sealer; nil stores plain JSON. Sessions
// written under one setting cannot be read under the other.
func (s *RedisStore) WithSealer(sealer *cryptox.Sealer) *RedisStore {
	s.sealer = sealer
	return s
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix + "session:" + id
}

func (s *RedisStore) Load(ctx context.Context, id string) (map[string]string, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if s.sealer != nil {
		// The key is bound as associated data so a record cannot be
		// replayed under another session id.
		if raw, err = s.sealer.Open(raw, []byte(s.key(id))); err != nil {
			return nil, fmt.Errorf("failed to decrypt session: %w", err)
		}
	}

	var values map[string]string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return values, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, values map[string]string, ttl time.Duration) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if s.sealer != nil {
		if raw, err = s.sealer.Seal(raw, []byte(s.key(id))); err != nil {
			return fmt.Errorf("failed to encrypt session: %w", err)
		}
	}
	if err := s.client.Set(ctx, s.key(id), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
