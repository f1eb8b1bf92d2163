package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryCache is a bounded in-process LRU cache.
type MemoryCache struct {
	mu       sync.Mutex
	queue    *list.List
	items    map[string]*list.Element
	capacity int
	now      func() time.Time
}

type memEntry struct {
	key       string
	data      []byte
	expiresAt time.Time
}

// NewMemoryCache returns an LRU cache holding at most capacity entries.
// Capacities below one are raised to one.
func NewMemoryCache(capacity int) *MemoryCache {
	return &MemoryCache{
		queue:    list.New(),
		items:    make(map[string]*list.Element),
		capacity: max(capacity, 1),
		now:      time.Now,
	}
}

// Get retrieves a value and marks it most recently used.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	e := el.Value.(*memEntry)
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.remove(el)
		return nil, false, nil
	}
	c.queue.MoveToFront(el)
	return e.data, true, nil
}

// Set stores a value, evicting the least recently used entry when full.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	if el, ok := c.items[key]; ok {
		e := el.Value.(*memEntry)
		e.data, e.expiresAt = data, exp
		c.queue.MoveToFront(el)
		return nil
	}
	if len(c.items) >= c.capacity {
		if back := c.queue.Back(); back != nil {
			c.remove(back)
		}
	}
	c.items[key] = c.queue.PushFront(&memEntry{key: key, data: data, expiresAt: exp})
	return nil
}

// Delete removes a value.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
	return nil
}

// Len returns the number of stored entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close drops every entry.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.Init()
	c.items = make(map[string]*list.Element)
	return nil
}

func (c *MemoryCache) remove(el *list.Element) {
	c.queue.Remove(el)
	delete(c.items, el.Value.(*memEntry).key)
}

// Ensure MemoryCache implements Cache.
var _ Cache = (*MemoryCache)(nil)
