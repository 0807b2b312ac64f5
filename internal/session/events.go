package session

import (
	infinity "github.com/Code-Hex/go-infinity-channel"
	"github.com/javanstorm/gcpvm/internal/coordinator"
	"github.com/javanstorm/gcpvm/internal/vm"
	"go.uber.org/zap/zapcore"
)

// Subscribe returns a stream of every coordinator event, across
// reconfigurations, and a function that ends the subscription. The stream
// is unbounded; a slow reader never delays other subscribers. It is closed
// by the returned function or by Close; events still queued at that point
// are discarded.
func (s *Session) Subscribe() (<-chan coordinator.Event, func()) {
	ch := infinity.NewChannel[coordinator.Event]()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		ch.Close()
		return ch.Out(), func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch.Out(), func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			closeSub(sub)
		}
	}
}

// closeSub closes ch and empties it. The channel's goroutine only exits once
// every queued event has been received.
func closeSub(ch *infinity.Channel[coordinator.Event]) {
	ch.Close()
	go func() {
		for range ch.Out() {
		}
	}()
}

// pump applies each event to the display state and fans it out. It exits
// when the coordinator's stream closes.
func (s *Session) pump(events <-chan coordinator.Event, done chan<- struct{}) {
	defer close(done)
	for ev := range events {
		s.mu.Lock()
		s.applyLocked(ev)
		for _, sub := range s.subs {
			sub.In() <- ev
		}
		s.mu.Unlock()
	}
}

func (s *Session) applyLocked(ev coordinator.Event) {
	switch e := ev.(type) {
	case coordinator.StatusReported:
		s.display = e.Status.String()
		s.last = e.Status
		s.stale = false
		s.logLocked(zapcore.InfoLevel, "VM Status: "+e.Status.String())
	case coordinator.OperationCompleted:
		switch {
		case e.Cancelled:
			s.display = "CANCELLED"
			s.last = vm.StatusUnknown
			s.stale = true
			s.logLocked(zapcore.WarnLevel, "Operations cancelled - refresh to try again")
		case e.Success:
			msg := e.Message
			if e.Remote != "" {
				msg += " (" + e.Remote + ")"
			}
			s.logLocked(zapcore.InfoLevel, msg)
		default:
			s.logLocked(zapcore.ErrorLevel, e.Message)
		}
	case coordinator.Failed:
		if e.Kind == vm.KindStatus {
			s.display = vm.StatusError.String()
			s.last = vm.StatusError
			s.stale = false
		}
		s.logLocked(zapcore.ErrorLevel, e.Message)
	}
}
