package timing

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestTimerMark(t *testing.T) {
	timer := New()

	time.Sleep(10 * time.Millisecond)
	timer.Mark("config")

	time.Sleep(15 * time.Millisecond)
	timer.Mark("remote")

	phases := timer.Phases()
	if len(phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(phases))
	}
	if phases[0].Name != "config" || phases[0].Duration < 10*time.Millisecond {
		t.Errorf("unexpected first phase: %+v", phases[0])
	}
	if phases[1].Name != "remote" || phases[1].Duration < 15*time.Millisecond {
		t.Errorf("unexpected second phase: %+v", phases[1])
	}
	if timer.Total() < 25*time.Millisecond {
		t.Errorf("total too short: %v", timer.Total())
	}
}

func TestTimerReport(t *testing.T) {
	timer := New()
	timer.Mark("config")
	timer.Mark("auth")

	var buf bytes.Buffer
	timer.Report(&buf)
	out := buf.String()

	for _, want := range []string{"Command Timing", "config:", "auth:", "total:"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestTimerFields(t *testing.T) {
	timer := New()
	timer.Mark("auth")

	fields := timer.Fields()
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Key != "auth" || fields[1].Key != "total" {
		t.Errorf("unexpected field keys: %s, %s", fields[0].Key, fields[1].Key)
	}
}

func TestNilTimer(t *testing.T) {
	var timer *Timer
	timer.Mark("config")
	if timer.Phases() != nil || timer.Fields() != nil || timer.Total() != 0 {
		t.Error("nil timer should record nothing")
	}
	var buf bytes.Buffer
	timer.Report(&buf)
	if buf.Len() != 0 {
		t.Error("nil timer should not report")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Microsecond, "500\u00b5s"},
		{50 * time.Millisecond, "50ms"},
		{1500 * time.Millisecond, "1.50s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}
}
