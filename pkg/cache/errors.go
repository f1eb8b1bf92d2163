package cache

import "errors"

// Sentinel errors for caching operations.
var (
	// ErrCacheMiss is returned when an item is not found in cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCorrupt is returned when a cached entry cannot be decoded.
	ErrCorrupt = errors.New("corrupt cache entry")
)
