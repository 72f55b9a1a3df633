// Package cache stores generated SQL keyed by upload content and options, so
// re-uploading the same file with the same settings skips the conversion.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis"
)

// keyPrefix namespaces cache entries in a shared Redis.
const keyPrefix = "csvdml:sql:"

// DefaultTTL is used when a non-positive TTL is configured.
const DefaultTTL = time.Hour

// Key derives a cache key from the raw upload and the settings that change
// the output. Each part is length-prefixed so distinct inputs never collide
// by concatenation.
func Key(data []byte, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s|", len(p), p)
	}
	h.Write(data)
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Noop never hits and discards writes.
type Noop struct{}

// Get implements the service's cache interface.
func (Noop) Get(context.Context, string) (string, bool, error) { return "", false, nil }

// Set implements the service's cache interface.
func (Noop) Set(context.Context, string, string) error { return nil }

// Redis caches generated SQL in Redis.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to addr and pings it.
func NewRedis(addr, password string, db int, ttl time.Duration) (*Redis, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping().Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}
	return &Redis{client: client, ttl: ttl}, nil
}

// Get returns the cached SQL for key, if any.
func (c *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.WithContext(ctx).Get(key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

// Set stores sql under key with the configured TTL.
func (c *Redis) Set(ctx context.Context, key, sql string) error {
	if err := c.client.WithContext(ctx).Set(key, sql, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the client's connections.
func (c *Redis) Close() error {
	return c.client.Close()
}
