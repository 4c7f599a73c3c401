package timing

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func (c *stepClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestTimerMark(t *testing.T) {
	clock := &stepClock{now: time.Unix(0, 0)}
	timer := NewWithClock(clock.Now)

	clock.Advance(10 * time.Millisecond)
	timer.Mark("export")

	clock.Advance(15 * time.Millisecond)
	timer.Mark("import")

	phases := timer.Phases()
	if len(phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(phases))
	}
	if phases[0].Name != "export" || phases[0].Duration != 10*time.Millisecond {
		t.Errorf("phase 0 = %+v, want export/10ms", phases[0])
	}
	if phases[1].Name != "import" || phases[1].Duration != 15*time.Millisecond {
		t.Errorf("phase 1 = %+v, want import/15ms", phases[1])
	}
	if got := timer.Total(); got != 25*time.Millisecond {
		t.Errorf("Total() = %v, want 25ms", got)
	}
}

func TestTimerPhasesIsCopy(t *testing.T) {
	timer := New()
	timer.Mark("a")

	phases := timer.Phases()
	phases[0].Name = "mutated"

	if timer.Phases()[0].Name != "a" {
		t.Error("Phases() should return a copy")
	}
}

func TestTimerFields(t *testing.T) {
	clock := &stepClock{now: time.Unix(0, 0)}
	timer := NewWithClock(clock.Now)
	clock.Advance(time.Second)
	timer.Mark("stage")

	fields := timer.Fields()
	if len(fields) != 2 {
		t.Fatalf("len(Fields()) = %d, want 2", len(fields))
	}
	if fields[0].Key != "stage" {
		t.Errorf("fields[0].Key = %q, want stage", fields[0].Key)
	}
	if fields[1].Key != "total" {
		t.Errorf("fields[1].Key = %q, want total", fields[1].Key)
	}
}

func TestTimerReport(t *testing.T) {
	clock := &stepClock{now: time.Unix(0, 0)}
	timer := NewWithClock(clock.Now)

	clock.Advance(10 * time.Millisecond)
	timer.Mark("export")
	clock.Advance(2 * time.Second)
	timer.Mark("import")

	var buf bytes.Buffer
	timer.Report(&buf, "Move Ubuntu")
	output := buf.String()

	for _, want := range []string{"=== Move Ubuntu ===", "export:", "10ms", "import:", "2.00s", "TOTAL:"} {
		if !strings.Contains(output, want) {
			t.Errorf("report missing %q:\n%s", want, output)
		}
	}
}

func TestTimerEmpty(t *testing.T) {
	timer := New()

	if len(timer.Phases()) != 0 {
		t.Errorf("expected 0 phases, got %d", len(timer.Phases()))
	}
	if timer.Total() < 0 {
		t.Error("total should not be negative")
	}

	var buf bytes.Buffer
	timer.Report(&buf, "empty")
	if !strings.Contains(buf.String(), "TOTAL:") {
		t.Error("empty report should still have total")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{500 * time.Microsecond, "500µs"},
		{50 * time.Millisecond, "50ms"},
		{1500 * time.Millisecond, "1.50s"},
		{2 * time.Second, "2.00s"},
	}

	for _, tt := range tests {
		result := formatDuration(tt.d)
		if result != tt.expected {
			t.Errorf("formatDuration(%v) = %s, expected %s", tt.d, result, tt.expected)
		}
	}
}
