// Package cache exposes a minimal key-value cache port used as the hot
// layer in front of persisted translations.
package cache

import (
	"context"
	"errors"
	"time"
)

// Cache is the contract implemented by the Redis and in-memory adapters.
// Implementations must be safe for concurrent use. Misses are reported
// as ErrMiss so callers can tell them apart from transport errors.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	// Set stores value at key. Zero or negative TTL means no expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Close() error
}

// ErrMiss signals a cache miss in a typed way.
var ErrMiss = errors.New("cache: miss")
