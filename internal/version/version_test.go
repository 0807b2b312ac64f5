package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, "gcpvm "+Version) {
		t.Errorf("String() = %q", s)
	}
	if !strings.Contains(s, Commit) {
		t.Errorf("String() missing commit: %q", s)
	}
}
