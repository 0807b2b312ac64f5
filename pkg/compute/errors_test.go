package compute

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Cause
	}{
		{"nil", nil, CauseUnknown},
		{"plain", errors.New("boom"), CauseUnknown},
		{"not found", &googleapi.Error{Code: 404}, CauseNotFound},
		{"wrapped not found", fmt.Errorf("get: %w", &googleapi.Error{Code: 404}), CauseNotFound},
		{"forbidden", &googleapi.Error{Code: 403}, CausePermission},
		{"unauthorized", &googleapi.Error{Code: 401}, CausePermission},
		{"server error", &googleapi.Error{Code: 503}, CauseNetwork},
		{"bad request", &googleapi.Error{Code: 400}, CauseUnknown},
		{"transport", &url.Error{Op: "Get", URL: "https://compute.googleapis.com", Err: errors.New("connection refused")}, CauseNetwork},
		{"cancelled", context.Canceled, CauseCancelled},
		{"deadline", fmt.Errorf("do: %w", context.DeadlineExceeded), CauseCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestCauseString(t *testing.T) {
	if got := CausePermission.String(); got != "permission" {
		t.Errorf("CausePermission.String() = %q, want %q", got, "permission")
	}
	if got := Cause(99).String(); got != "unknown" {
		t.Errorf("Cause(99).String() = %q, want %q", got, "unknown")
	}
}

func TestTargetString(t *testing.T) {
	target := Target{Project: "proj1", Zone: "us-central1-a", Instance: "vm1"}
	want := "projects/proj1/zones/us-central1-a/instances/vm1"
	if got := target.String(); got != want {
		t.Errorf("Target.String() = %q, want %q", got, want)
	}
}
