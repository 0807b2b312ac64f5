package vm

import (
	"fmt"

	"github.com/javanstorm/gcpvm/pkg/compute"
)

// QueryError is returned when a status query fails. It is never retried.
type QueryError struct {
	Instance string
	Cause    compute.Cause
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query status of %s failed (%s): %v", e.Instance, e.Cause, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// DispatchError is returned when a start/stop request is not accepted.
type DispatchError struct {
	Kind     Kind
	Instance string
	Cause    compute.Cause
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s %s failed (%s): %v", e.Kind, e.Instance, e.Cause, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
