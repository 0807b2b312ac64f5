package config

import (
	"fmt"
	"strings"
)

// Environment variables that override the persisted configuration.
const (
	EnvProjectID      = "GCP_PROJECT_ID"
	EnvZone           = "GCP_ZONE"
	EnvInstanceName   = "GCP_INSTANCE_NAME"
	EnvServiceKeyPath = "GCP_SERVICE_KEY_PATH"
)

// Keys of the persisted JSON object.
const (
	KeyProjectID      = "project_id"
	KeyZone           = "zone"
	KeyInstanceName   = "instance_name"
	KeyServiceKeyPath = "service_key_path"
)

// envBindings maps each config key to the variable overriding it.
var envBindings = []struct {
	key string
	env string
}{
	{KeyProjectID, EnvProjectID},
	{KeyZone, EnvZone},
	{KeyInstanceName, EnvInstanceName},
	{KeyServiceKeyPath, EnvServiceKeyPath},
}

// Config identifies the instance to manage and the credential to manage it with.
// A Config is replaced as a whole; callers never patch single fields of a
// validated value.
type Config struct {
	// ProjectID is the GCP project that owns the instance.
	ProjectID string `json:"project_id" mapstructure:"project_id"`

	// Zone is the instance zone, e.g. us-central1-a.
	Zone string `json:"zone" mapstructure:"zone"`

	// InstanceName is the name of the VM instance.
	InstanceName string `json:"instance_name" mapstructure:"instance_name"`

	// ServiceKeyPath is the path to the service account JSON key file.
	ServiceKeyPath string `json:"service_key_path" mapstructure:"service_key_path"`
}

// IsEmpty reports whether no field is set.
func (c Config) IsEmpty() bool {
	return c == Config{}
}

// IsValid reports whether all four fields are non-empty after trimming.
func (c Config) IsValid() bool {
	return c.Validate() == nil
}

// Validate returns a *ValidationError naming every missing field, or nil.
func (c Config) Validate() error {
	var fields []FieldError
	for _, f := range c.fields() {
		if strings.TrimSpace(f.value) == "" {
			fields = append(fields, FieldError{Field: f.key, Message: "is required"})
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Summary renders the config for display. Missing fields read "not set" and
// long key paths keep only their tail.
func (c Config) Summary() string {
	show := func(v string) string {
		if strings.TrimSpace(v) == "" {
			return "not set"
		}
		return v
	}

	key := show(c.ServiceKeyPath)
	if len(key) > 50 {
		key = "..." + key[len(key)-47:]
	}

	return fmt.Sprintf("Project: %s\nZone: %s\nInstance: %s\nService Key: %s",
		show(c.ProjectID), show(c.Zone), show(c.InstanceName), key)
}

type field struct {
	key   string
	value string
}

func (c Config) fields() []field {
	return []field{
		{KeyProjectID, c.ProjectID},
		{KeyZone, c.Zone},
		{KeyInstanceName, c.InstanceName},
		{KeyServiceKeyPath, c.ServiceKeyPath},
	}
}
