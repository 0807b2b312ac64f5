// Package coordinator runs lifecycle operations off the caller's goroutine
// with at most one operation in flight at a time.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	infinity "github.com/Code-Hex/go-infinity-channel"
	"github.com/google/uuid"
	"github.com/javanstorm/gcpvm/internal/metrics"
	"github.com/javanstorm/gcpvm/internal/vm"
	"go.uber.org/zap"
)

// Defaults for Options and StartAutoPoll.
const (
	DefaultPollInterval = 30 * time.Second
	DefaultRepollDelay  = 2 * time.Second
)

var (
	// ErrBusy is returned when a request arrives while another is in flight.
	// It is a control signal, not a failure.
	ErrBusy = errors.New("an operation is already in progress")

	// ErrClosed is returned for requests made after Close.
	ErrClosed = errors.New("coordinator is closed")

	// ErrPanic wraps a panic recovered from a controller call.
	ErrPanic = errors.New("controller panicked")
)

// State is the coordinator's dispatch state.
type State int

const (
	StateIdle State = iota
	StateBusy
	// StateCancelling only holds inside Cancel while the synthetic completion
	// is emitted under the lock. Cancel returns with the coordinator IDLE, so
	// State never reports it.
	StateCancelling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateBusy:
		return "BUSY"
	case StateCancelling:
		return "CANCELLING"
	default:
		return "UNKNOWN"
	}
}

// Controller is the set of remote calls the coordinator schedules.
// *vm.Controller satisfies it.
type Controller interface {
	Status(ctx context.Context) (vm.Status, error)
	Start(ctx context.Context) (vm.Accepted, error)
	Stop(ctx context.Context) (vm.Accepted, error)
}

// Options configures a Coordinator.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Recorder

	// RepollDelay is how long after a successful start or stop a single
	// status query is issued. Zero disables the re-poll.
	RepollDelay time.Duration
}

// DefaultOptions returns options with the default re-poll delay.
func DefaultOptions() Options {
	return Options{RepollDelay: DefaultRepollDelay}
}

// Coordinator serializes controller calls. All methods are safe for
// concurrent use and none of them wait on a remote call.
type Coordinator struct {
	ctrl        Controller
	log         *zap.Logger
	metrics     *metrics.Recorder
	repollDelay time.Duration

	mu      sync.Mutex
	state   State
	current *Operation
	cancel  context.CancelFunc
	gen     uint64
	closed  bool
	workers map[uint64]chan struct{}

	events       *infinity.Channel[Event]
	eventsClosed bool

	pollStop     chan struct{}
	pollInterval time.Duration
	repoll       *time.Timer
}

// New creates an idle coordinator for ctrl.
func New(ctrl Controller, opts Options) *Coordinator {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		ctrl:        ctrl,
		log:         log.Named("coordinator"),
		metrics:     opts.Metrics,
		repollDelay: opts.RepollDelay,
		workers:     make(map[uint64]chan struct{}),
		events:      infinity.NewChannel[Event](),
	}
}

// Events returns the stream of terminal events, in the order their requests
// were accepted. The stream is closed by Close.
func (c *Coordinator) Events() <-chan Event {
	return c.events.Out()
}

// State returns the current dispatch state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns a snapshot of the in-flight operation, or nil when idle.
func (c *Coordinator) Current() *Operation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	op := *c.current
	return &op
}

// RequestStatus schedules a status query.
func (c *Coordinator) RequestStatus() (*Operation, error) {
	return c.request(vm.KindStatus, sourceUser)
}

// RequestStart schedules a start request.
func (c *Coordinator) RequestStart() (*Operation, error) {
	return c.request(vm.KindStart, sourceUser)
}

// RequestStop schedules a stop request.
func (c *Coordinator) RequestStop() (*Operation, error) {
	return c.request(vm.KindStop, sourceUser)
}

// Request schedules an operation of the given kind.
func (c *Coordinator) Request(kind vm.Kind) (*Operation, error) {
	return c.request(kind, sourceUser)
}

type source int

const (
	sourceUser source = iota
	sourceAutoPoll
	sourceRepoll
)

func (c *Coordinator) request(kind vm.Kind, src source) (*Operation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.state != StateIdle {
		switch src {
		case sourceAutoPoll:
			c.metrics.AutoPollSkipped()
			c.log.Debug("auto-poll tick skipped", zap.Stringer("state", c.state))
		case sourceUser:
			c.metrics.Busy()
			c.log.Debug("request rejected", zap.Stringer("kind", kind), zap.Stringer("state", c.state))
		}
		return nil, ErrBusy
	}

	op := &Operation{
		ID:         uuid.NewString(),
		Kind:       kind,
		State:      OpPending,
		AcceptedAt: time.Now(),
	}
	ctx, cancel := context.WithCancel(context.Background())

	c.gen++
	gen := c.gen
	done := make(chan struct{})
	c.workers[gen] = done

	op.State = OpInFlight
	c.state = StateBusy
	c.current = op
	c.cancel = cancel
	c.metrics.Started()

	c.log.Debug("operation accepted", zap.String("id", op.ID), zap.Stringer("kind", kind))
	go c.run(ctx, gen, *op, done)

	snapshot := *op
	return &snapshot, nil
}

func (c *Coordinator) run(ctx context.Context, gen uint64, op Operation, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		delete(c.workers, gen)
		c.mu.Unlock()
		close(done)
	}()

	ev := c.execute(ctx, op)
	c.finish(gen, ev)
}

// execute performs the controller call and converts its outcome into an
// event. Panics are reported as Failed.
func (c *Coordinator) execute(ctx context.Context, op Operation) (ev Event) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrPanic, r)
			c.log.Error("controller call panicked", zap.String("id", op.ID), zap.Any("panic", r))
			ev = Failed{Op: op, Kind: op.Kind, Message: failureMessage(op.Kind, err), Err: err}
		}
	}()

	switch op.Kind {
	case vm.KindStart, vm.KindStop:
		call := c.ctrl.Start
		if op.Kind == vm.KindStop {
			call = c.ctrl.Stop
		}
		acc, err := call(ctx)
		if err != nil {
			return Failed{Op: op, Kind: op.Kind, Message: failureMessage(op.Kind, err), Err: err}
		}
		return OperationCompleted{
			Op:      op,
			Kind:    op.Kind,
			Success: true,
			Message: successMessage(op.Kind),
			Remote:  acc.Operation,
		}
	default:
		status, err := c.ctrl.Status(ctx)
		if err != nil {
			return Failed{Op: op, Kind: op.Kind, Message: failureMessage(op.Kind, err), Err: err}
		}
		return StatusReported{Op: op, Status: status}
	}
}

// finish delivers the worker's event and returns to IDLE, unless the worker
// was detached by Cancel, in which case its result is discarded.
func (c *Coordinator) finish(gen uint64, ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.state != StateBusy {
		c.log.Debug("discarding result of detached operation",
			zap.String("id", ev.Operation().ID), zap.String("event", ev.EventType()))
		return
	}

	op := *c.current
	result := metrics.ResultSuccess
	switch e := ev.(type) {
	case Failed:
		op.State = OpFailed
		e.Op = op
		ev = e
		result = metrics.ResultFailure
	case OperationCompleted:
		op.State = OpSucceeded
		e.Op = op
		ev = e
	case StatusReported:
		op.State = OpSucceeded
		e.Op = op
		ev = e
		c.metrics.ObserveStatus(e.Status.String(), statusNames())
	}
	c.metrics.Finished(op.Kind.String(), result, time.Since(op.AcceptedAt))

	c.emitLocked(ev)
	c.resetLocked()

	if done, ok := ev.(OperationCompleted); ok && done.Success {
		c.scheduleRepollLocked()
	}
}

// Cancel detaches the in-flight operation and delivers a synthetic
// cancellation event. The remote request may still complete server-side.
// Cancel reports false when nothing was in flight.
func (c *Coordinator) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelLocked()
}

func (c *Coordinator) cancelLocked() bool {
	c.stopRepollLocked()
	if c.state != StateBusy {
		return false
	}

	c.state = StateCancelling
	op := *c.current
	op.State = OpFailed
	c.cancel()
	// Bumping the generation detaches the worker; finish will discard its result.
	c.gen++

	c.metrics.Finished(op.Kind.String(), metrics.ResultCancelled, time.Since(op.AcceptedAt))
	c.log.Info("operation cancelled", zap.String("id", op.ID), zap.Stringer("kind", op.Kind))
	c.emitLocked(OperationCompleted{
		Op:        op,
		Kind:      op.Kind,
		Success:   false,
		Message:   "Operation cancelled",
		Cancelled: true,
	})
	c.resetLocked()
	return true
}

// Drain cancels any in-flight operation and waits until every worker,
// including detached ones, has returned or ctx is done.
func (c *Coordinator) Drain(ctx context.Context) error {
	c.mu.Lock()
	c.cancelLocked()
	pending := make([]chan struct{}, 0, len(c.workers))
	for _, done := range c.workers {
		pending = append(pending, done)
	}
	c.mu.Unlock()

	for _, done := range pending {
		select {
		case <-done:
		case <-ctx.Done():
			return fmt.Errorf("drain coordinator: %w", ctx.Err())
		}
	}
	return nil
}

// Close stops auto-poll and any pending re-poll, drains, and closes the
// event stream. Requests made after Close return ErrClosed.
func (c *Coordinator) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.stopAutoPollLocked()
	c.stopRepollLocked()
	c.mu.Unlock()

	err := c.Drain(ctx)

	c.mu.Lock()
	c.eventsClosed = true
	c.events.Close()
	c.mu.Unlock()
	return err
}

func (c *Coordinator) resetLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = nil
	c.current = nil
	c.state = StateIdle
}

// emitLocked enqueues ev. The queue is unbounded so this never waits on a
// subscriber.
func (c *Coordinator) emitLocked(ev Event) {
	if c.eventsClosed {
		return
	}
	c.log.Debug("event", zap.String("type", ev.EventType()), zap.String("id", ev.Operation().ID))
	c.events.In() <- ev
}

func (c *Coordinator) scheduleRepollLocked() {
	if c.repollDelay <= 0 || c.closed {
		return
	}
	c.stopRepollLocked()
	c.repoll = time.AfterFunc(c.repollDelay, func() {
		if _, err := c.request(vm.KindStatus, sourceRepoll); err != nil {
			c.log.Debug("re-poll skipped", zap.Error(err))
		}
	})
}

func (c *Coordinator) stopRepollLocked() {
	if c.repoll != nil {
		c.repoll.Stop()
		c.repoll = nil
	}
}

func successMessage(kind vm.Kind) string {
	switch kind {
	case vm.KindStart:
		return "VM start operation initiated successfully"
	case vm.KindStop:
		return "VM stop operation initiated successfully"
	default:
		return "VM status retrieved"
	}
}

func failureMessage(kind vm.Kind, err error) string {
	switch kind {
	case vm.KindStart:
		return fmt.Sprintf("Error starting VM: %v", err)
	case vm.KindStop:
		return fmt.Sprintf("Error stopping VM: %v", err)
	default:
		return fmt.Sprintf("Error getting status: %v", err)
	}
}

func statusNames() []string {
	names := make([]string, len(vm.Statuses))
	for i, s := range vm.Statuses {
		names[i] = s.String()
	}
	return names
}
