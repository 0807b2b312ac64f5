package auth

import (
	"fmt"
	"os"

	"github.com/javanstorm/gcpvm/pkg/compute"
)

// Handle is the authorized client capability. It is owned by the controller
// that requested it and is never refreshed: once the key file is gone the
// handle is invalid and a new one must be obtained through Authenticate.
type Handle struct {
	api     compute.API
	email   string
	keyPath string
}

// NewHandle wraps an already-authorized API. Used by tests and by callers
// that bring their own client.
func NewHandle(api compute.API, email, keyPath string) *Handle {
	return &Handle{api: api, email: email, keyPath: keyPath}
}

// API returns the authorized compute client.
func (h *Handle) API() compute.API {
	return h.api
}

// Email returns the service account the handle acts as.
func (h *Handle) Email() string {
	return h.email
}

// KeyPath returns the key file the handle was built from.
func (h *Handle) KeyPath() string {
	return h.keyPath
}

// Verify reports whether the key file backing the handle is still readable.
func (h *Handle) Verify() error {
	if h.keyPath == "" {
		return nil
	}
	f, err := os.Open(h.keyPath)
	if err != nil {
		return &Error{Kind: FileNotFound, Path: h.keyPath, Err: fmt.Errorf("credential no longer readable: %w", err)}
	}
	return f.Close()
}
