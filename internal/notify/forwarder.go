package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/javanstorm/gcpvm/internal/coordinator"
	"go.uber.org/zap"
)

// DefaultSubject is the subject events are published on.
const DefaultSubject = "gcpvm.events"

// Message is the JSON form of a coordinator event.
type Message struct {
	Type        string    `json:"type"`
	OperationID string    `json:"operation_id"`
	Kind        string    `json:"kind"`
	Instance    string    `json:"instance"`
	Status      string    `json:"status,omitempty"`
	Success     bool      `json:"success"`
	Cancelled   bool      `json:"cancelled,omitempty"`
	Message     string    `json:"message,omitempty"`
	Remote      string    `json:"remote_operation,omitempty"`
	Error       string    `json:"error,omitempty"`
	AcceptedAt  time.Time `json:"accepted_at"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewMessage converts ev for publishing.
func NewMessage(instance string, ev coordinator.Event) Message {
	op := ev.Operation()
	m := Message{
		Type:        ev.EventType(),
		OperationID: op.ID,
		Kind:        op.Kind.String(),
		Instance:    instance,
		AcceptedAt:  op.AcceptedAt.UTC(),
		Timestamp:   time.Now().UTC(),
	}
	switch e := ev.(type) {
	case coordinator.StatusReported:
		m.Status = e.Status.String()
		m.Success = true
	case coordinator.OperationCompleted:
		m.Success = e.Success
		m.Cancelled = e.Cancelled
		m.Message = e.Message
		m.Remote = e.Remote
	case coordinator.Failed:
		m.Message = e.Message
		if e.Err != nil {
			m.Error = e.Err.Error()
		}
	}
	return m
}

// Forwarder publishes every event it receives.
type Forwarder struct {
	pub      Publisher
	subject  string
	instance func() string
	log      *zap.Logger
}

// NewForwarder creates a forwarder. An empty subject selects DefaultSubject.
// instance is called for every message so a reconfigured session publishes
// under its new instance name.
func NewForwarder(pub Publisher, subject string, instance func() string, log *zap.Logger) *Forwarder {
	if subject == "" {
		subject = DefaultSubject
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Forwarder{pub: pub, subject: subject, instance: instance, log: log.Named("notify")}
}

// Run publishes events until the channel closes or ctx is done. Publish
// failures are logged and do not stop the loop.
func (f *Forwarder) Run(ctx context.Context, events <-chan coordinator.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := f.Forward(ctx, ev); err != nil {
				f.log.Warn("failed to publish event", zap.String("type", ev.EventType()), zap.Error(err))
			}
		}
	}
}

// Forward publishes a single event.
func (f *Forwarder) Forward(ctx context.Context, ev coordinator.Event) error {
	var instance string
	if f.instance != nil {
		instance = f.instance()
	}
	payload, err := json.Marshal(NewMessage(instance, ev))
	if err != nil {
		return err
	}
	return f.pub.Publish(ctx, f.subject, payload)
}
