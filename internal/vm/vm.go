// Package vm provides the controller for a single remote Compute Engine
// instance. It wraps an authorized client with the instance's project, zone,
// and name, and converts every remote failure into a typed error.
package vm
