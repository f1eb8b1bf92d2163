// Package cache stores pipeline results keyed by content hashes.
//
// The CLI keeps snapshots and rendered artifacts in a [FileCache] under the
// user cache directory so repeated runs over an unchanged scene and script
// skip the replay. The interactive browser uses a bounded [MemoryCache].
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. The bool is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Default TTLs per entry type.
const (
	// TTLSnapshot applies to replayed layout snapshots.
	TTLSnapshot = 7 * 24 * time.Hour

	// TTLArtifact applies to rendered SVG/PDF/PNG output.
	TTLArtifact = 7 * 24 * time.Hour
)
