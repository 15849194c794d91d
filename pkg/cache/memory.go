package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryEntry struct {
	data     []byte
	expireAt time.Time // zero means the LRU TTL alone applies
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// MemoryCache implements Service with a bounded, expiring LRU.
// Entries are stored encoded so Get decodes into any destination type.
type MemoryCache struct {
	lru *expirable.LRU[string, memoryEntry]
	mu  sync.Mutex // serializes TryLock check-and-set
	now func() time.Time
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize: 1000,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &MemoryCache{
		lru: expirable.NewLRU[string, memoryEntry](cfg.MaxSize, nil, cfg.TTL),
		now: time.Now,
	}
}

func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	c.lru.Add(key, c.entry(data, expiration))
	return nil
}

func (c *MemoryCache) entry(data []byte, expiration time.Duration) memoryEntry {
	e := memoryEntry{data: data}
	if expiration > 0 {
		e.expireAt = c.now().Add(expiration)
	}
	return e
}

func (c *MemoryCache) lookup(key string) (memoryEntry, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return memoryEntry{}, false
	}
	if e.expired(c.now()) {
		c.lru.Remove(key)
		return memoryEntry{}, false
	}
	return e, true
}

func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	e, ok := c.lookup(key)
	if !ok {
		return ErrCacheMiss
	}
	return decode(e.data, dest)
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		c.lru.Remove(key)
	}
	return nil
}

func (c *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	for _, key := range keys {
		if _, ok := c.lookup(key); ok {
			return true, nil
		}
	}
	return false, nil
}

func (c *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lookup(key); ok {
		return false, nil
	}
	c.lru.Add(key, c.entry([]byte("locked"), ttl))
	return true, nil
}

func (c *MemoryCache) Unlock(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lru.Remove(key) {
		return ErrCacheMiss
	}
	return nil
}

// Len reports the number of entries, expired ones included until they are evicted.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// Close drops every entry.
func (c *MemoryCache) Close() error {
	c.lru.Purge()
	return nil
}
