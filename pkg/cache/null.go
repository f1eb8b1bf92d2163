package cache

import (
	"context"
	"time"
)

// NullCache stores nothing. The pipeline runner falls back to it when no
// cache is configured, and the CLI uses it for --no-cache, so every
// snapshot is replayed and every artifact rendered again.
type NullCache struct{}

// NewNullCache returns a cache that always misses.
func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (*NullCache) Delete(context.Context, string) error { return nil }

func (*NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)
