package session

import (
	"fmt"
	"time"

	"github.com/javanstorm/gcpvm/internal/coordinator"
	"github.com/javanstorm/gcpvm/internal/policy"
	"github.com/javanstorm/gcpvm/internal/vm"
	"go.uber.org/zap/zapcore"
)

// StatusDisplay returns the text of the status label: the last reported
// status, "ERROR" after a failed query, or "CANCELLED" after a cancel.
func (s *Session) StatusDisplay() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display
}

// LastStatus returns the status actions are currently offered for.
func (s *Session) LastStatus() vm.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// ErrNeedsRefresh is returned for start/stop after a cancel, until the
// status has been queried again.
var ErrNeedsRefresh = fmt.Errorf("status unknown after cancel, refresh first: %w", policy.ErrIllegalAction)

// LegalActions returns the actions offered for LastStatus. After a cancel
// only NONE is offered until the next status report.
func (s *Session) LegalActions() []policy.Action {
	if s.NeedsRefresh() {
		return []policy.Action{policy.ActionNone}
	}
	return policy.LegalActions(s.LastStatus())
}

// NeedsRefresh reports whether start/stop are withheld until the next
// status report.
func (s *Session) NeedsRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// Busy reports whether an operation is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	coord := s.coord
	s.mu.Unlock()
	return coord != nil && coord.State() != coordinator.StateIdle
}

// RequestStatus schedules a status query.
func (s *Session) RequestStatus() (*coordinator.Operation, error) {
	return s.request(vm.KindStatus)
}

// RequestStart schedules a start request.
func (s *Session) RequestStart() (*coordinator.Operation, error) {
	return s.request(vm.KindStart)
}

// RequestStop schedules a stop request.
func (s *Session) RequestStop() (*coordinator.Operation, error) {
	return s.request(vm.KindStop)
}

// Perform carries out a menu action chosen for the current status. NONE
// returns a nil operation and dispatches nothing.
func (s *Session) Perform(action policy.Action) (*coordinator.Operation, error) {
	if action != policy.ActionNone && s.NeedsRefresh() {
		return nil, ErrNeedsRefresh
	}
	kind, dispatch, err := policy.Resolve(s.LastStatus(), action)
	if err != nil {
		return nil, err
	}
	if !dispatch {
		s.logf(zapcore.InfoLevel, "No action taken. VM state unchanged.")
		return nil, nil
	}
	return s.request(kind)
}

func (s *Session) request(kind vm.Kind) (*coordinator.Operation, error) {
	s.mu.Lock()
	coord := s.coord
	s.mu.Unlock()
	if coord == nil {
		s.logf(zapcore.WarnLevel, "%v", ErrNotConfigured)
		return nil, ErrNotConfigured
	}

	op, err := coord.Request(kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case vm.KindStart:
		s.logf(zapcore.InfoLevel, "Starting VM...")
	case vm.KindStop:
		s.logf(zapcore.InfoLevel, "Stopping VM...")
	default:
		s.logf(zapcore.DebugLevel, "Checking VM status...")
	}
	return op, nil
}

// Cancel stops auto-poll and cancels the in-flight operation, if any. It
// reports whether an operation was cancelled.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	coord := s.coord
	wasPolling := s.autoPoll
	s.autoPoll = false
	s.mu.Unlock()

	if coord == nil {
		return false
	}
	s.logf(zapcore.InfoLevel, "Cancelling operations...")
	if wasPolling {
		coord.StopAutoPoll()
		s.logf(zapcore.InfoLevel, "Auto-refresh stopped")
	}
	return coord.Cancel()
}

// SetAutoPoll turns periodic status queries on or off. The setting
// survives reconfiguration.
func (s *Session) SetAutoPoll(on bool) error {
	s.mu.Lock()
	coord := s.coord
	if coord == nil && on {
		s.mu.Unlock()
		return ErrNotConfigured
	}
	changed := s.autoPoll != on
	s.autoPoll = on
	s.mu.Unlock()

	if coord != nil {
		if on {
			coord.StartAutoPoll(s.pollInterval)
		} else {
			coord.StopAutoPoll()
		}
	}
	if changed {
		if on {
			s.logf(zapcore.InfoLevel, "Auto-refresh started (%s interval)", s.pollInterval)
		} else {
			s.logf(zapcore.InfoLevel, "Auto-refresh stopped")
		}
	}
	return nil
}

// AutoPolling reports whether auto-poll is on.
func (s *Session) AutoPolling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoPoll
}

// PollInterval returns the auto-poll period.
func (s *Session) PollInterval() time.Duration {
	return s.pollInterval
}
