package vm

import "strings"

// Status is the power state of the managed instance as seen by the engine.
type Status int

const (
	StatusUnknown       Status = iota
	StatusRunning              // instance is up
	StatusTerminated           // instance is stopped
	StatusTransitioning        // starting, stopping, or being repaired
	StatusError                // the last status query failed
)

// Statuses lists every Status value in declaration order.
var Statuses = []Status{StatusUnknown, StatusRunning, StatusTerminated, StatusTransitioning, StatusError}

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "RUNNING"
	case StatusTerminated:
		return "TERMINATED"
	case StatusTransitioning:
		return "TRANSITIONING"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseStatus maps a raw Compute Engine instance status onto a Status.
// See https://cloud.google.com/compute/docs/instances/instance-lifecycle
func ParseStatus(raw string) Status {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "RUNNING":
		return StatusRunning
	case "TERMINATED", "STOPPED":
		return StatusTerminated
	case "PROVISIONING", "STAGING", "STOPPING", "PENDING_STOP", "SUSPENDING", "REPAIRING":
		return StatusTransitioning
	default:
		return StatusUnknown
	}
}
