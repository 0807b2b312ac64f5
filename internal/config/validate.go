package config

import (
	"fmt"
	"strings"
)

// FieldError describes one invalid configuration field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned when a Config is missing required fields.
// It is recoverable: nothing has been written and no state has changed.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("invalid configuration: missing %s", strings.Join(names, ", "))
}

// FormatValidationErrors returns a human-readable summary of err's fields.
func FormatValidationErrors(err *ValidationError) string {
	if err == nil || len(err.Fields) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Configuration errors:\n")
	for _, f := range err.Fields {
		fmt.Fprintf(&b, "  Error [%s]: %s\n", f.Field, f.Message)
	}
	return b.String()
}

// IOError wraps a failure to read or write the persisted configuration.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s config %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
