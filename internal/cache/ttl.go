// Package cache provides a mint-keyed in-memory cache with a fixed time-to-live.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"solana-token-sentinel/internal/observability"
)

// Default TTLs for the two engines.
const (
	AnalysisTTL  = 60 * time.Second
	SentimentTTL = 300 * time.Second

	// DefaultLoadTimeout bounds a shared load once it no longer follows the
	// context of the caller that started it.
	DefaultLoadTimeout = 30 * time.Second
)

// Option configures a TTL cache.
type Option func(*options)

type options struct {
	now         func() time.Time
	maxEntries  int
	loadTimeout time.Duration
}

// WithClock sets the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithMaxEntries bounds the number of entries; the oldest entry is evicted first.
// Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

// WithLoadTimeout bounds each shared GetOrLoad load. Zero or less keeps
// DefaultLoadTimeout.
func WithLoadTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.loadTimeout = d
		}
	}
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// TTL is a string-keyed cache whose entries expire ttl after they were stored.
// It is safe for concurrent use.
type TTL[V any] struct {
	name       string
	ttl         time.Duration
	now         func() time.Time
	maxEntries  int
	loadTimeout time.Duration

	mu      sync.Mutex
	entries map[string]entry[V]

	group singleflight.Group
}

// New creates a cache. The name labels cache metrics.
func New[V any](name string, ttl time.Duration, opts ...Option) *TTL[V] {
	o := options{now: time.Now, loadTimeout: DefaultLoadTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &TTL[V]{
		name:       name,
		ttl:        ttl,
		now:        o.now,
		maxEntries:  o.maxEntries,
		loadTimeout: o.loadTimeout,
		entries:     make(map[string]entry[V]),
	}
}

// TTL returns the configured time-to-live.
func (c *TTL[V]) TTL() time.Duration {
	return c.ttl
}

// Get returns a live entry. Expired entries are removed on access.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.getLocked(key)
	observability.RecordCacheLookup(c.name, ok)
	return v, ok
}

func (c *TTL[V]) getLocked(key string) (V, bool) {
	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.expired(e) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

func (c *TTL[V]) expired(e entry[V]) bool {
	return c.now().Sub(e.storedAt) >= c.ttl
}

// Set stores a value, replacing any previous entry for key.
func (c *TTL[V]) Set(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = entry[V]{value: v, storedAt: c.now()}
}

func (c *TTL[V]) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range c.entries {
		if first || e.storedAt.Before(oldest) {
			oldestKey, oldest, first = k, e.storedAt, false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

// Delete removes key.
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Purge drops every expired entry and returns how many were removed.
func (c *TTL[V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetOrLoad returns the cached value for key or calls load once for all concurrent
// callers of the same key. When store reports false the loaded value is returned
// but not cached.
//
// load runs under a context that keeps ctx's values but not its cancellation,
// bounded by the load timeout, so one caller giving up does not fail the
// others sharing the load. A caller whose ctx ends first returns ctx.Err().
func (c *TTL[V]) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) (v V, store bool, err error)) (V, error) {
	var zero V
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// A caller that lost the race may arrive after the winner stored the value.
		c.mu.Lock()
		if v, ok := c.getLocked(key); ok {
			c.mu.Unlock()
			return v, nil
		}
		c.mu.Unlock()

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		v, store, err := load(loadCtx)
		if err != nil {
			return v, err
		}
		if store {
			c.Set(key, v)
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if v, ok := res.Val.(V); ok {
				return v, res.Err
			}
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}
