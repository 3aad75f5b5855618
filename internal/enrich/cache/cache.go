// Package cache stores enrichment insights between runs so that unchanged
// entities never trigger a second paid provider call. Backends share one
// byte-oriented interface; callers serialize their own values.
package cache

import (
	"context"
	"time"
)

// Cache is the interface all insight cache backends implement.
type Cache interface {
	// Get retrieves a value. A missing key returns ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL. A zero TTL uses the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every value owned by this cache.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Config holds common configuration shared by every backend.
type Config struct {
	// DefaultTTL applies when Set is called with a zero TTL.
	DefaultTTL time.Duration
	// Prefix is prepended to all keys, isolating this cache's entries.
	Prefix string
}

// DefaultConfig returns the standard insight cache configuration.
func DefaultConfig() Config {
	return Config{
		DefaultTTL: 7 * 24 * time.Hour,
		Prefix:     "easysdk:",
	}
}

// ErrCacheMiss is returned when a key is not present.
type ErrCacheMiss struct {
	Key string
}

func (e ErrCacheMiss) Error() string {
	return "cache miss: " + e.Key
}

// IsCacheMiss reports whether err is a cache miss.
func IsCacheMiss(err error) bool {
	_, ok := err.(ErrCacheMiss)
	return ok
}
