// Package ratelimit provides a keyed cooldown gate for expensive polling
// operations such as metrics collection.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Key identifies a rate-limited operation.
type Key string

// Well-known keys.
const (
	KeyDistroMetrics Key = "distro_metrics"
	KeySystemMetrics Key = "system_metrics"
	KeyDistroList    Key = "distro_list"
	KeyApplyProfile  Key = "apply_profile"
)

// LimitedError is returned when a key is still cooling down.
type LimitedError struct {
	Key       Key
	Remaining time.Duration
}

func (e *LimitedError) Error() string {
	return fmt.Sprintf("ratelimit: %s rate limited, wait %dms", e.Key, e.Remaining.Milliseconds())
}

// Cooldown records the last accepted invocation per key.
// It is safe for concurrent use.
type Cooldown struct {
	mu   sync.Mutex
	last map[Key]time.Time
	now  func() time.Time
}

// Option configures a Cooldown.
type Option func(*Cooldown)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cooldown) {
		c.now = now
	}
}

// New creates an empty Cooldown.
func New(opts ...Option) *Cooldown {
	c := &Cooldown{
		last: make(map[Key]time.Time),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckAndSet accepts the call and records now if at least minInterval has
// passed since the last accepted call for key. A rejected call leaves the
// recorded timestamp untouched and returns a *LimitedError.
func (c *Cooldown) CheckAndSet(key Key, minInterval time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, ok := c.last[key]; ok {
		if elapsed := now.Sub(last); elapsed < minInterval {
			return &LimitedError{Key: key, Remaining: minInterval - elapsed}
		}
	}
	c.last[key] = now
	return nil
}

// Peek reports whether key is still cooling down, without recording anything.
func (c *Cooldown) Peek(key Key, minInterval time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.last[key]
	if !ok {
		return false
	}
	return c.now().Sub(last) < minInterval
}

// Reset forgets the timestamp recorded for key.
func (c *Cooldown) Reset(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.last, key)
}
