// Package config provides configuration management for gcpvm.
package config

import (
	"os"
	"path/filepath"
)

// Paths holds the per-user locations used by gcpvm.
type Paths struct {
	// ConfigDir holds the connection config and the log file.
	// All platforms: ~/.gcp-vm-manager
	ConfigDir string

	// ConfigFile is the four-field JSON connection configuration.
	ConfigFile string

	// LogFile is the default destination for structured logs.
	LogFile string
}

// GetPaths returns the per-user paths for gcpvm.
func GetPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(home, ".gcp-vm-manager")
	return &Paths{
		ConfigDir:  dir,
		ConfigFile: filepath.Join(dir, "config.json"),
		LogFile:    filepath.Join(dir, "gcpvm.log"),
	}, nil
}

