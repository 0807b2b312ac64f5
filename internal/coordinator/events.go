package coordinator

import "github.com/javanstorm/gcpvm/internal/vm"

// Event type names, also used as the NATS message type.
const (
	TypeStatusReported     = "status.reported"
	TypeOperationCompleted = "operation.completed"
	TypeFailed             = "operation.failed"
)

// Event is a terminal outcome of an accepted request. Exactly one Event is
// delivered per accepted request.
type Event interface {
	EventType() string

	// Operation returns a snapshot of the request the event terminates.
	Operation() Operation
}

// StatusReported carries the result of a successful status query.
type StatusReported struct {
	Op     Operation
	Status vm.Status
}

func (e StatusReported) EventType() string    { return TypeStatusReported }
func (e StatusReported) Operation() Operation { return e.Op }

// OperationCompleted terminates a start or stop request. Success means the
// request was accepted by Compute Engine. A cancelled request is reported
// with Cancelled set and Success false.
type OperationCompleted struct {
	Op        Operation
	Kind      vm.Kind
	Success   bool
	Message   string
	Remote    string
	Cancelled bool
}

func (e OperationCompleted) EventType() string    { return TypeOperationCompleted }
func (e OperationCompleted) Operation() Operation { return e.Op }

// Failed reports a failed status query or a rejected start/stop request.
type Failed struct {
	Op      Operation
	Kind    vm.Kind
	Message string
	Err     error
}

func (e Failed) EventType() string    { return TypeFailed }
func (e Failed) Operation() Operation { return e.Op }
