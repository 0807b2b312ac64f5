package vm

import (
	"context"

	"github.com/javanstorm/gcpvm/internal/auth"
	"github.com/javanstorm/gcpvm/internal/config"
	"github.com/javanstorm/gcpvm/pkg/compute"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/javanstorm/gcpvm/internal/vm"

// Controller issues lifecycle requests for one instance. All methods block
// until the remote call returns; there is no internal timeout and no retry.
// Callers bound the call through ctx.
type Controller struct {
	handle *auth.Handle
	target compute.Target
	tracer trace.Tracer
	log    *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithTracerProvider sets the provider spans are recorded with.
// The global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Controller) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// WithLogger sets the controller's logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) {
		c.log = log.Named("vm")
	}
}

// NewController creates a controller for the instance named by cfg.
// The controller takes ownership of h.
func NewController(h *auth.Handle, cfg config.Config, opts ...Option) *Controller {
	c := &Controller{
		handle: h,
		target: compute.Target{
			Project:  cfg.ProjectID,
			Zone:     cfg.Zone,
			Instance: cfg.InstanceName,
		},
		tracer: otel.Tracer(tracerName),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Target returns the instance the controller manages.
func (c *Controller) Target() compute.Target {
	return c.target
}

// Status queries the instance's current power state.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	ctx, span := c.startSpan(ctx, "vm.status")
	defer span.End()

	if err := c.handle.Verify(); err != nil {
		return StatusError, c.queryFailed(span, compute.CauseCredential, err)
	}

	inst, err := c.handle.API().GetInstance(ctx, c.target)
	if err != nil {
		return StatusError, c.queryFailed(span, compute.Classify(err), err)
	}

	status := ParseStatus(inst.Status)
	span.SetAttributes(
		attribute.String("gcp.instance.status", inst.Status),
		attribute.String("gcpvm.status", status.String()),
	)
	c.log.Debug("instance status",
		zap.String("instance", c.target.Instance),
		zap.String("remote", inst.Status),
		zap.Stringer("status", status))
	return status, nil
}

// Start requests the instance to start. Success means the request was
// accepted; the instance reaches RUNNING later.
func (c *Controller) Start(ctx context.Context) (Accepted, error) {
	return c.dispatch(ctx, KindStart, c.handle.API().StartInstance)
}

// Stop requests the instance to stop. Symmetric to Start.
func (c *Controller) Stop(ctx context.Context) (Accepted, error) {
	return c.dispatch(ctx, KindStop, c.handle.API().StopInstance)
}

func (c *Controller) dispatch(ctx context.Context, kind Kind,
	call func(context.Context, compute.Target) (*compute.Operation, error)) (Accepted, error) {
	ctx, span := c.startSpan(ctx, "vm."+lower(kind))
	defer span.End()

	if err := c.handle.Verify(); err != nil {
		return Accepted{}, c.dispatchFailed(span, kind, compute.CauseCredential, err)
	}

	op, err := call(ctx, c.target)
	if err != nil {
		return Accepted{}, c.dispatchFailed(span, kind, compute.Classify(err), err)
	}

	span.SetAttributes(attribute.String("gcp.operation", op.Name))
	c.log.Info("lifecycle request accepted",
		zap.Stringer("kind", kind),
		zap.String("instance", c.target.Instance),
		zap.String("operation", op.Name))
	return Accepted{Kind: kind, Operation: op.Name}, nil
}

func (c *Controller) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("gcp.project", c.target.Project),
		attribute.String("gcp.zone", c.target.Zone),
		attribute.String("gcp.instance", c.target.Instance),
	))
}

func (c *Controller) queryFailed(span trace.Span, cause compute.Cause, err error) error {
	qerr := &QueryError{Instance: c.target.Instance, Cause: cause, Err: err}
	span.RecordError(qerr)
	span.SetStatus(codes.Error, cause.String())
	c.log.Warn("status query failed", zap.String("instance", c.target.Instance), zap.Stringer("cause", cause), zap.Error(err))
	return qerr
}

func (c *Controller) dispatchFailed(span trace.Span, kind Kind, cause compute.Cause, err error) error {
	derr := &DispatchError{Kind: kind, Instance: c.target.Instance, Cause: cause, Err: err}
	span.RecordError(derr)
	span.SetStatus(codes.Error, cause.String())
	c.log.Warn("lifecycle request failed", zap.Stringer("kind", kind), zap.String("instance", c.target.Instance),
		zap.Stringer("cause", cause), zap.Error(err))
	return derr
}

func lower(k Kind) string {
	switch k {
	case KindStart:
		return "start"
	case KindStop:
		return "stop"
	default:
		return "status"
	}
}
