package wsl

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL is how long a listing stays fresh.
const DefaultTTL = 2000 * time.Millisecond

var _ Gateway = (*ExecGateway)(nil)

type cacheEntry struct {
	capturedAt time.Time
	instances  []Instance
}

// Cache is a TTL-bounded view of the instance list with single-flight
// refresh. The entry and the flight guard are guarded independently so a
// slow listing never blocks readers of a fresh entry.
type Cache struct {
	q   Querier
	ttl time.Duration
	now func() time.Time
	log *zap.Logger

	mu    sync.RWMutex
	entry *cacheEntry

	refreshing atomic.Bool
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithCacheLogger sets the logger.
func WithCacheLogger(log *zap.Logger) CacheOption {
	return func(c *Cache) { c.log = log }
}

// NewCache creates an empty cache over q.
func NewCache(q Querier, opts ...CacheOption) *Cache {
	c := &Cache{
		q:   q,
		ttl: DefaultTTL,
		now: time.Now,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the instance list, refreshing it when older than the TTL.
// While another caller is refreshing, Get returns the previous listing
// without waiting, or ErrBusy if there has never been one.
func (c *Cache) Get(ctx context.Context) ([]Instance, error) {
	if list, ok := c.lookup(true); ok {
		return list, nil
	}

	if !c.refreshing.CompareAndSwap(false, true) {
		if list, ok := c.lookup(false); ok {
			c.log.Debug("refresh in flight, serving stale instance list")
			return list, nil
		}
		return nil, ErrBusy
	}
	defer c.refreshing.Store(false)

	return c.refresh(ctx)
}

// ForceRefresh queries unconditionally and replaces the entry, ignoring the
// TTL and the flight guard.
func (c *Cache) ForceRefresh(ctx context.Context) ([]Instance, error) {
	return c.refresh(ctx)
}

// Invalidate drops the entry so the next Get refreshes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entry = nil
	c.mu.Unlock()
}

// CapturedAt reports when the current entry was taken.
func (c *Cache) CapturedAt() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return time.Time{}, false
	}
	return c.entry.capturedAt, true
}

// lookup returns a copy of the entry. With freshOnly set, an entry older
// than the TTL is treated as missing.
func (c *Cache) lookup(freshOnly bool) ([]Instance, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil {
		return nil, false
	}
	if freshOnly && c.now().Sub(c.entry.capturedAt) >= c.ttl {
		return nil, false
	}
	return slices.Clone(c.entry.instances), true
}

func (c *Cache) refresh(ctx context.Context) ([]Instance, error) {
	start := c.now()
	out, err := c.q.ListInstances(ctx)
	if err != nil {
		c.log.Warn("list instances failed", zap.Error(err))
		return nil, err
	}
	instances := ParseInstances(out)

	c.mu.Lock()
	c.entry = &cacheEntry{capturedAt: c.now(), instances: instances}
	c.mu.Unlock()

	c.log.Debug("instance list refreshed",
		zap.Int("count", len(instances)),
		zap.Duration("took", c.now().Sub(start)))
	return slices.Clone(instances), nil
}
