// Package policy decides which lifecycle actions are offered for a given
// instance status and turns a chosen action into a dispatch decision.
package policy

import (
	"errors"
	"fmt"

	"github.com/javanstorm/gcpvm/internal/vm"
)

// ErrIllegalAction is returned by Resolve when the action is not offered for the status.
var ErrIllegalAction = errors.New("action not available for current status")

// Action is a user's choice from the menu.
type Action int

const (
	ActionNone Action = iota
	ActionStart
	ActionStop
)

func (a Action) String() string {
	switch a {
	case ActionStart:
		return "START"
	case ActionStop:
		return "STOP"
	default:
		return "NONE"
	}
}

// LegalActions returns the actions offered for status, in menu order.
// The result is never empty; NONE is always last.
func LegalActions(status vm.Status) []Action {
	switch status {
	case vm.StatusRunning:
		return []Action{ActionStop, ActionNone}
	case vm.StatusTerminated:
		return []Action{ActionStart, ActionNone}
	default:
		return []Action{ActionStart, ActionStop, ActionNone}
	}
}

// Allowed reports whether action is offered for status.
func Allowed(status vm.Status, action Action) bool {
	for _, a := range LegalActions(status) {
		if a == action {
			return true
		}
	}
	return false
}

// Resolve maps a chosen action to the operation to dispatch. dispatch is
// false for NONE, in which case nothing is sent and the instance is unchanged.
func Resolve(status vm.Status, action Action) (kind vm.Kind, dispatch bool, err error) {
	if !Allowed(status, action) {
		return vm.KindStatus, false, fmt.Errorf("%s while %s: %w", action, status, ErrIllegalAction)
	}
	switch action {
	case ActionStart:
		return vm.KindStart, true, nil
	case ActionStop:
		return vm.KindStop, true, nil
	default:
		return vm.KindStatus, false, nil
	}
}

// Label returns the menu text for action. Outside RUNNING and TERMINATED
// both transitions are offered tentatively.
func Label(status vm.Status, action Action) string {
	definite := status == vm.StatusRunning || status == vm.StatusTerminated
	switch action {
	case ActionStart:
		if definite {
			return "Start the VM"
		}
		return "Try to start the VM"
	case ActionStop:
		if definite {
			return "Stop the VM"
		}
		return "Try to stop the VM"
	default:
		return "Do nothing"
	}
}

// Choose maps a 1-based menu choice to an action.
func Choose(status vm.Status, choice int) (Action, bool) {
	actions := LegalActions(status)
	if choice < 1 || choice > len(actions) {
		return ActionNone, false
	}
	return actions[choice-1], true
}
