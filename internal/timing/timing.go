// Package timing records the duration of named phases of a long-running
// operation, such as the steps of an instance relocation.
package timing

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// Timer tracks durations of named phases.
type Timer struct {
	start  time.Time
	last   time.Time
	now    func() time.Time
	phases []Phase
}

// Phase is a named step and how long it took.
type Phase struct {
	Name     string
	Duration time.Duration
}

// New creates a Timer starting from now.
func New() *Timer {
	return NewWithClock(time.Now)
}

// NewWithClock creates a Timer that reads time from now.
func NewWithClock(now func() time.Time) *Timer {
	start := now()
	return &Timer{start: start, last: start, now: now}
}

// Mark records a phase ending now. Its duration is the time since the
// previous mark, or since the timer started.
func (t *Timer) Mark(name string) {
	now := t.now()
	t.phases = append(t.phases, Phase{Name: name, Duration: now.Sub(t.last)})
	t.last = now
}

// Total returns the elapsed time since the timer was created.
func (t *Timer) Total() time.Duration {
	return t.now().Sub(t.start)
}

// Phases returns a copy of the recorded phases.
func (t *Timer) Phases() []Phase {
	out := make([]Phase, len(t.phases))
	copy(out, t.phases)
	return out
}

// Fields renders the phases as zap fields, one duration per phase plus total.
func (t *Timer) Fields() []zap.Field {
	fields := make([]zap.Field, 0, len(t.phases)+1)
	for _, p := range t.phases {
		fields = append(fields, zap.Duration(p.Name, p.Duration))
	}
	return append(fields, zap.Duration("total", t.Total()))
}

// Report writes a human-readable timing table to w.
func (t *Timer) Report(w io.Writer, title string) {
	fmt.Fprintf(w, "=== %s ===\n", title)
	for _, p := range t.phases {
		fmt.Fprintf(w, "  %-20s %s\n", p.Name+":", formatDuration(p.Duration))
	}
	fmt.Fprintf(w, "  %-20s %s\n", "TOTAL:", formatDuration(t.Total()))
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
