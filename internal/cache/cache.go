package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key does not exist.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache is a minimal key/value cache interface (e.g. Redis).
type Cache interface {
	// Ping checks if the cache is reachable.
	Ping(ctx context.Context) error

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// SetNX stores value only if key does not exist yet and reports whether
	// it did so.
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)

	// Get retrieves a value by key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (string, error)

	// Incr atomically increments a numeric value and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
}
