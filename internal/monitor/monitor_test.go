package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanstorm/wsltamer/internal/ratelimit"
	"github.com/javanstorm/wsltamer/internal/testutil"
	"github.com/javanstorm/wsltamer/internal/wsl"
)

const sampleMemInfo = `MemTotal:        8048576 kB
MemFree:         4024288 kB
MemAvailable:    6036432 kB
Buffers:          102400 kB
Cached:          1024000 kB
SwapCached:            0 kB
SwapTotal:       2097152 kB
SwapFree:        1048576 kB
`

func TestParseMemInfo(t *testing.T) {
	got := ParseMemInfo(sampleMemInfo)
	want := MemoryBreakdown{
		TotalMB:     8048576.0 / 1024,
		FreeMB:      4024288.0 / 1024,
		AvailableMB: 6036432.0 / 1024,
		BuffersMB:   100,
		CachedMB:    1000,
		SwapTotalMB: 2048,
		SwapUsedMB:  1024,
	}
	want.UsedMB = want.TotalMB - want.FreeMB - want.BuffersMB - want.CachedMB
	assert.InDeltaMapValues(t,
		map[string]float64{"total": want.TotalMB, "used": want.UsedMB, "swapUsed": want.SwapUsedMB},
		map[string]float64{"total": got.TotalMB, "used": got.UsedMB, "swapUsed": got.SwapUsedMB},
		0.001)
	assert.Equal(t, want.BuffersMB, got.BuffersMB)
	assert.Equal(t, want.CachedMB, got.CachedMB)
}

func TestParseMemInfoNegativeUsedFallsBack(t *testing.T) {
	got := ParseMemInfo("MemTotal: 1024 kB\nMemFree: 1024 kB\nMemAvailable: 512 kB\nCached: 512 kB\n")
	assert.Equal(t, 0.5, got.UsedMB)
}

func TestParseMemInfoEmpty(t *testing.T) {
	assert.Equal(t, MemoryBreakdown{}, ParseMemInfo(""))
}

func TestParseMemoryValue(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"8GB", 8192, true},
		{"4gb", 4096, true},
		{"512MB", 512, true},
		{"1024mb", 1024, true},
		{"2G", 2048, true},
		{"256m", 256, true},
		{"1073741824", 1024, true},
		{" 1.5GB ", 1536, true},
		{"lots", 0, false},
		{"GB", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseMemoryValue(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseMemoryValue(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newCollector(gw *testutil.Gateway, opts ...Option) (*Collector, *manualClock) {
	clock := &manualClock{now: time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)}
	cache := wsl.NewCache(gw, wsl.WithClock(clock.Now))
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewCollector(gw, cache, opts...), clock
}

func TestCollectorSystemRunning(t *testing.T) {
	gw := testutil.NewGateway("Ubuntu")
	gw.SetRunning("Ubuntu", true)
	gw.SetMemInfo(sampleMemInfo)
	gw.SetGlobalConfig("[wsl2]\nmemory=6GB\n")
	c, clock := newCollector(gw)

	m, err := c.System(context.Background())
	require.NoError(t, err)
	assert.True(t, m.Running)
	assert.Equal(t, 6144.0, m.MemoryLimitMB)
	require.NotNil(t, m.Memory)
	assert.Equal(t, 2048.0, m.Memory.SwapTotalMB)
	assert.Equal(t, clock.Now(), m.Timestamp)
}

func TestCollectorSystemStopped(t *testing.T) {
	gw := testutil.NewGateway("Ubuntu")
	c, _ := newCollector(gw, WithHostMemory(func() float64 { return 16384 }))

	m, err := c.System(context.Background())
	require.NoError(t, err)
	assert.False(t, m.Running)
	assert.Nil(t, m.Memory)
	assert.Equal(t, 8192.0, m.MemoryLimitMB, "falls back to half the host memory")

	for _, call := range gw.Calls() {
		assert.NotEqual(t, "meminfo", call.Op)
	}
}

func TestCollectorRateLimited(t *testing.T) {
	gw := testutil.NewGateway("Ubuntu")
	c, clock := newCollector(gw, WithInterval(time.Second))
	ctx := context.Background()

	_, err := c.System(ctx)
	require.NoError(t, err)

	clock.Advance(300 * time.Millisecond)
	_, err = c.System(ctx)
	var limited *ratelimit.LimitedError
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, ratelimit.KeySystemMetrics, limited.Key)
	assert.Equal(t, 700*time.Millisecond, limited.Remaining)

	// Per-distribution metrics have their own key.
	_, err = c.Distros(ctx)
	require.NoError(t, err)

	clock.Advance(700 * time.Millisecond)
	_, err = c.System(ctx)
	require.NoError(t, err)
}

func TestCollectorDistros(t *testing.T) {
	gw := testutil.NewGateway("Debian", "Ubuntu")
	gw.SetRunning("Ubuntu", true)
	c, _ := newCollector(gw)

	got, err := c.Distros(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []DistroMetrics{
		{Name: "Debian", Version: "2"},
		{Name: "Ubuntu", Version: "2", Running: true},
	}, got)
}

func TestCollectorListFailure(t *testing.T) {
	gw := testutil.NewGateway("Ubuntu")
	boom := errors.New("wsl.exe timed out")
	gw.FailOn("list", "", boom)
	c, _ := newCollector(gw)

	_, err := c.Distros(context.Background())
	require.ErrorIs(t, err, boom)
}
