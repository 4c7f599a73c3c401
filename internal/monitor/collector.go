package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/javanstorm/wsltamer/internal/ratelimit"
	"github.com/javanstorm/wsltamer/internal/wsl"
	"github.com/javanstorm/wsltamer/internal/wslconf"
)

// DefaultInterval is the minimum time between two collections of the same
// kind.
const DefaultInterval = time.Second

// SystemMetrics describes WSL memory use as a whole.
type SystemMetrics struct {
	// MemoryLimitMB is the .wslconfig memory limit, or half of the host's
	// memory when none is configured. Zero when neither is known.
	MemoryLimitMB float64          `json:"wslMemoryLimitMb"`
	Memory        *MemoryBreakdown `json:"wslMemory,omitempty"`
	Running       bool             `json:"running"`
	Timestamp     time.Time        `json:"timestamp"`
}

// DistroMetrics describes one instance.
type DistroMetrics struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Running bool   `json:"isRunning"`
}

// Collector gathers metrics through the instance cache and the gateway.
type Collector struct {
	q        wsl.Querier
	cache    *wsl.Cache
	limiter  *ratelimit.Cooldown
	interval time.Duration
	hostMB   func() float64
	now      func() time.Time
	log      *zap.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithInterval sets the minimum time between collections.
func WithInterval(d time.Duration) Option {
	return func(c *Collector) { c.interval = d }
}

// WithLimiter shares a Cooldown with other components.
func WithLimiter(l *ratelimit.Cooldown) Option {
	return func(c *Collector) { c.limiter = l }
}

// WithHostMemory reports total host memory in MiB, used when .wslconfig
// sets no limit.
func WithHostMemory(fn func() float64) Option {
	return func(c *Collector) { c.hostMB = fn }
}

// WithClock overrides the time source for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Collector) { c.log = log }
}

// NewCollector creates a Collector.
func NewCollector(q wsl.Querier, cache *wsl.Cache, opts ...Option) *Collector {
	c := &Collector{
		q:        q,
		cache:    cache,
		interval: DefaultInterval,
		hostMB:   func() float64 { return 0 },
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limiter == nil {
		c.limiter = ratelimit.New(ratelimit.WithClock(c.now))
	}
	return c
}

// System collects host-wide WSL memory metrics. Calls closer together than
// the interval fail with *ratelimit.LimitedError.
func (c *Collector) System(ctx context.Context) (SystemMetrics, error) {
	if err := c.limiter.CheckAndSet(ratelimit.KeySystemMetrics, c.interval); err != nil {
		return SystemMetrics{}, err
	}

	m := SystemMetrics{Timestamp: c.now()}
	m.MemoryLimitMB = c.memoryLimit(ctx)

	instances, err := c.cache.Get(ctx)
	if err != nil {
		return m, fmt.Errorf("list instances: %w", err)
	}
	m.Running = wsl.AnyRunning(instances)
	if !m.Running {
		return m, nil
	}

	out, err := c.q.ReadMemInfo(ctx, "")
	if err != nil {
		c.log.Warn("read meminfo", zap.Error(err))
		return m, nil
	}
	breakdown := ParseMemInfo(out)
	m.Memory = &breakdown
	return m, nil
}

// Distros reports per-instance state. Calls closer together than the
// interval fail with *ratelimit.LimitedError.
func (c *Collector) Distros(ctx context.Context) ([]DistroMetrics, error) {
	if err := c.limiter.CheckAndSet(ratelimit.KeyDistroMetrics, c.interval); err != nil {
		return nil, err
	}
	instances, err := c.cache.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	out := make([]DistroMetrics, 0, len(instances))
	for _, inst := range instances {
		out = append(out, DistroMetrics{
			Name:    inst.Name,
			Version: inst.Version,
			Running: inst.State == wsl.StateRunning,
		})
	}
	return out, nil
}

func (c *Collector) memoryLimit(ctx context.Context) float64 {
	fallback := c.hostMB() / 2

	text, err := c.q.ReadGlobalConfig(ctx)
	if err != nil {
		c.log.Debug("read .wslconfig", zap.Error(err))
		return fallback
	}
	conf, err := wslconf.Parse(text)
	if err != nil || conf.Memory == nil {
		return fallback
	}
	if mb, ok := ParseMemoryValue(*conf.Memory); ok {
		return mb
	}
	return fallback
}
