// Package cache stores downloaded avatar bytes between runs.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance, for several servers
//   - [NullCache]: stores nothing
//
// Keys come from a [Keyer], which hashes request parameters so that the
// same picture fetched at a different size gets its own entry.
// [RetryWithBackoff] retries transient download failures.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry. Get reports a miss as
// (nil, false, nil); errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// AvatarKey is the key of a picture cropped to size pixels.
	AvatarKey(url string, size int) string
}

// DefaultKeyer hashes key parameters with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// AvatarKey returns "avatar:<sha256(url, size)>".
func (DefaultKeyer) AvatarKey(url string, size int) string {
	return hashKey("avatar", url, size)
}
