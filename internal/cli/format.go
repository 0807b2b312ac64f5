package cli

import (
	"fmt"

	"github.com/javanstorm/gcpvm/internal/coordinator"
)

// formatEvent renders ev as the one line the one-shot commands print.
func formatEvent(ev coordinator.Event) string {
	switch e := ev.(type) {
	case coordinator.StatusReported:
		return "VM Status: " + e.Status.String()
	case coordinator.OperationCompleted:
		switch {
		case e.Cancelled:
			return e.Message
		case e.Remote != "":
			return fmt.Sprintf("%s (operation %s)", e.Message, e.Remote)
		default:
			return e.Message
		}
	case coordinator.Failed:
		return e.Message
	default:
		return ev.EventType()
	}
}

// eventError is the command error for a terminal event, nil on success.
func eventError(ev coordinator.Event) error {
	switch e := ev.(type) {
	case coordinator.Failed:
		if e.Err != nil {
			return e.Err
		}
		return fmt.Errorf("%s", e.Message)
	case coordinator.OperationCompleted:
		if e.Cancelled {
			return errCancelled
		}
		if !e.Success {
			return fmt.Errorf("%s", e.Message)
		}
	}
	return nil
}
