package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/javanstorm/gcpvm/internal/coordinator"
	"github.com/javanstorm/gcpvm/internal/session"
	"github.com/javanstorm/gcpvm/internal/vm"
	"github.com/spf13/cobra"
)

// cancelGrace is how long a cancelled one-shot command waits for the
// cancellation event before giving up.
const cancelGrace = 2 * time.Second

// followGrace is added to the re-poll delay before --follow queries the
// status itself.
const followGrace = 2 * time.Second

var (
	errCancelled     = errors.New("operation cancelled")
	errSessionClosed = errors.New("session closed before the operation finished")
)

// operator is the part of *session.Session the one-shot commands use.
type operator interface {
	Subscribe() (<-chan coordinator.Event, func())
	RequestStatus() (*coordinator.Operation, error)
	Cancel() bool
}

// awaitOperation issues one request and prints its terminal event. When
// follow is positive and a start/stop was accepted, it also waits for the
// next status result, querying it itself if none has arrived after follow.
// Cancelling ctx cancels the request.
func awaitOperation(ctx context.Context, out io.Writer, o operator, request func() (*coordinator.Operation, error), follow time.Duration) error {
	events, unsubscribe := o.Subscribe()
	defer unsubscribe()

	op, err := request()
	if err != nil {
		return err
	}

	ev, err := waitFor(ctx, o, events, func(ev coordinator.Event) bool {
		return ev.Operation().ID == op.ID
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, formatEvent(ev))
	if err := eventError(ev); err != nil {
		return err
	}

	done, ok := ev.(coordinator.OperationCompleted)
	if follow <= 0 || !ok || !done.Success {
		return nil
	}
	fmt.Fprintln(out, "Waiting for status update...")
	ev, err = awaitStatus(ctx, o, events, follow)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, formatEvent(ev))
	return eventError(ev)
}

func waitFor(ctx context.Context, o operator, events <-chan coordinator.Event, match func(coordinator.Event) bool) (coordinator.Event, error) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil, errSessionClosed
			}
			if match(ev) {
				return ev, nil
			}
		case <-ctx.Done():
			cancelAndDrain(o, events)
			return nil, errCancelled
		}
	}
}

// awaitStatus waits for the next status result, successful or not. If none
// has arrived after wait it requests one; ErrBusy then means a query is
// already running and its result is still awaited.
func awaitStatus(ctx context.Context, o operator, events <-chan coordinator.Event, wait time.Duration) (coordinator.Event, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil, errSessionClosed
			}
			if isStatusResult(ev) {
				return ev, nil
			}
		case <-timer.C:
			if _, err := o.RequestStatus(); err != nil && !errors.Is(err, coordinator.ErrBusy) {
				return nil, err
			}
		case <-ctx.Done():
			cancelAndDrain(o, events)
			return nil, errCancelled
		}
	}
}

func isStatusResult(ev coordinator.Event) bool {
	switch e := ev.(type) {
	case coordinator.StatusReported:
		return true
	case coordinator.Failed:
		return e.Kind == vm.KindStatus
	default:
		return false
	}
}

// cancelAndDrain cancels the in-flight request and waits briefly for the
// cancellation event so the session log records it before the command exits.
func cancelAndDrain(o operator, events <-chan coordinator.Event) {
	if !o.Cancel() {
		return
	}
	timer := time.NewTimer(cancelGrace)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if e, isDone := ev.(coordinator.OperationCompleted); isDone && e.Cancelled {
				return
			}
		case <-timer.C:
			return
		}
	}
}

// runOneShot opens the session and runs a single request against it.
func runOneShot(cmd *cobra.Command, request func(*session.Session) func() (*coordinator.Operation, error), follow bool) error {
	a, err := newApp(cmd.Context())
	if a != nil {
		defer a.Close()
	}
	if err != nil {
		return err
	}
	if !a.session.Configured() {
		return fmt.Errorf("%w (run 'gcpvm config set')", session.ErrNotConfigured)
	}

	var wait time.Duration
	if follow {
		wait = a.settings.RepollDelay + followGrace
	}
	err = awaitOperation(cmd.Context(), cmd.OutOrStdout(), a.session, request(a.session), wait)
	a.timer.Mark("operation")
	return err
}
