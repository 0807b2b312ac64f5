// Package compute is the boundary to the Google Compute Engine API.
// It exposes the three instance calls the lifecycle engine needs and
// nothing else; operations returned by start/stop are never polled.
package compute

import (
	"context"
	"fmt"

	gce "google.golang.org/api/compute/v1"
	"google.golang.org/api/option"
)

// Scope is the OAuth2 scope required for instance lifecycle calls.
const Scope = gce.ComputeScope

// API is the list of instance operations executed against Compute Engine.
type API interface {
	// GetInstance fetches the instance descriptor.
	GetInstance(ctx context.Context, t Target) (*Instance, error)

	// StartInstance asks Compute Engine to start a stopped instance.
	// A nil error means the request was accepted, not that the instance is running.
	StartInstance(ctx context.Context, t Target) (*Operation, error)

	// StopInstance asks Compute Engine to stop a running instance.
	StopInstance(ctx context.Context, t Target) (*Operation, error)
}

// Target addresses a single instance.
type Target struct {
	Project  string
	Zone     string
	Instance string
}

// String returns the target in projects/<p>/zones/<z>/instances/<i> form.
func (t Target) String() string {
	return fmt.Sprintf("projects/%s/zones/%s/instances/%s", t.Project, t.Zone, t.Instance)
}

// Instance is the subset of the instance descriptor used by the engine.
type Instance struct {
	// Name is the instance name.
	Name string

	// Status is the raw Compute Engine status (RUNNING, TERMINATED, STAGING, ...).
	Status string
}

// Operation is the handle returned for an accepted start/stop request.
type Operation struct {
	// Name is the opaque operation name.
	Name string

	// Type is the operation type reported by the API (start, stop).
	Type string
}

type computeServiceWrapper struct {
	service *gce.Service
}

// NewAPI creates an API backed by the Compute Engine REST client.
func NewAPI(ctx context.Context, opts ...option.ClientOption) (API, error) {
	service, err := gce.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create compute service: %w", err)
	}
	return &computeServiceWrapper{service: service}, nil
}

func (g *computeServiceWrapper) GetInstance(ctx context.Context, t Target) (*Instance, error) {
	inst, err := g.service.Instances.Get(t.Project, t.Zone, t.Instance).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return &Instance{Name: inst.Name, Status: inst.Status}, nil
}

func (g *computeServiceWrapper) StartInstance(ctx context.Context, t Target) (*Operation, error) {
	op, err := g.service.Instances.Start(t.Project, t.Zone, t.Instance).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return &Operation{Name: op.Name, Type: op.OperationType}, nil
}

func (g *computeServiceWrapper) StopInstance(ctx context.Context, t Target) (*Operation, error) {
	op, err := g.service.Instances.Stop(t.Project, t.Zone, t.Instance).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return &Operation{Name: op.Name, Type: op.OperationType}, nil
}
