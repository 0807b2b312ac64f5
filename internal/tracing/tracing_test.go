package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestSetupDisabled(t *testing.T) {
	p, err := Setup(false, nil)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	_, span := p.Tracer("test").Start(context.Background(), "noop")
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestSetupEnabled(t *testing.T) {
	var buf bytes.Buffer
	p, err := Setup(true, &buf)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	_, span := p.Tracer("test").Start(context.Background(), "vm.status")
	span.End()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "vm.status") {
		t.Errorf("exported spans missing span name:\n%s", out)
	}
	if !strings.Contains(out, ServiceName) {
		t.Errorf("exported spans missing service name:\n%s", out)
	}
}
