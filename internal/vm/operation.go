package vm

// Kind is the type of lifecycle operation.
type Kind int

const (
	KindStatus Kind = iota
	KindStart
	KindStop
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "START"
	case KindStop:
		return "STOP"
	default:
		return "STATUS"
	}
}

// Accepted reports that Compute Engine accepted a start/stop request.
// The instance may still be transitioning; poll Status to observe the result.
type Accepted struct {
	Kind Kind

	// Operation is the opaque name of the remote operation.
	Operation string
}
