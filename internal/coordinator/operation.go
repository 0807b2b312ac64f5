package coordinator

import (
	"time"

	"github.com/javanstorm/gcpvm/internal/vm"
)

// OpState is the lifecycle of a single accepted request.
type OpState int

const (
	OpPending OpState = iota
	OpInFlight
	OpSucceeded
	OpFailed
)

func (s OpState) String() string {
	switch s {
	case OpPending:
		return "PENDING"
	case OpInFlight:
		return "IN_FLIGHT"
	case OpSucceeded:
		return "SUCCEEDED"
	case OpFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Operation describes an accepted request. Values handed out by the
// coordinator are snapshots; mutating them has no effect.
type Operation struct {
	ID         string
	Kind       vm.Kind
	State      OpState
	AcceptedAt time.Time
}
