// Package timing measures the phases of a single command run
// (configuration, authentication, remote call) for --timing output.
package timing

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Timer records consecutive named phases. A nil *Timer is valid and
// records nothing, so commands can mark phases unconditionally.
type Timer struct {
	mu     sync.Mutex
	start  time.Time
	last   time.Time
	phases []Phase
}

// Phase is one measured step.
type Phase struct {
	Name     string
	Duration time.Duration
}

// New starts a timer.
func New() *Timer {
	now := time.Now()
	return &Timer{start: now, last: now}
}

// Mark closes the current phase under name.
func (t *Timer) Mark(name string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.phases = append(t.phases, Phase{Name: name, Duration: now.Sub(t.last)})
	t.last = now
}

// Total is the time since New.
func (t *Timer) Total() time.Duration {
	if t == nil {
		return 0
	}
	return time.Since(t.start)
}

// Phases returns a copy of the recorded phases.
func (t *Timer) Phases() []Phase {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Phase(nil), t.phases...)
}

// Report writes a human-readable table to w.
func (t *Timer) Report(w io.Writer) {
	if t == nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Command Timing ===")
	for _, p := range t.Phases() {
		fmt.Fprintf(w, "  %-16s %s\n", p.Name+":", formatDuration(p.Duration))
	}
	fmt.Fprintf(w, "  %-16s %s\n", "total:", formatDuration(t.Total()))
}

// Fields returns the phases as zap fields for structured logs.
func (t *Timer) Fields() []zap.Field {
	if t == nil {
		return nil
	}
	phases := t.Phases()
	fields := make([]zap.Field, 0, len(phases)+1)
	for _, p := range phases {
		fields = append(fields, zap.Duration(p.Name, p.Duration))
	}
	return append(fields, zap.Duration("total", t.Total()))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%d\u00b5s", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
