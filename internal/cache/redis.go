// Package cache wraps the redis client used for short-lived shared state.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Redis is a thin key/value facade over a go-redis client.
type Redis struct {
	rdb *redis.Client
}

// New constructs a client. No connection is made until the first command.
func New(cfg Config) *Redis {
	return &Redis{rdb: redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})}
}

// NewFromClient wraps an existing client.
func NewFromClient(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

// Ping verifies the server is reachable.
func (c *Redis) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the underlying connections.
func (c *Redis) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Get returns the stored bytes, or nil when the key is absent.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return b, nil
}

// SetNX stores val under key only when the key does not exist yet.
func (c *Redis) SetNX(ctx context.Context, key string, val []byte, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, key, val, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %q: %w", key, err)
	}
	if !ok {
		slog.Default().Debug("redis key already present", "key", key)
	}
	return ok, nil
}

// Exists reports whether key is present.
func (c *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %q: %w", key, err)
	}
	return n == 1, nil
}
