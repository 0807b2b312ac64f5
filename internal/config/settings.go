package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables for runtime settings,
// e.g. GCPVM_POLL_INTERVAL.
const EnvPrefix = "GCPVM"

// Settings holds runtime options. They come from flags and GCPVM_* variables
// and are never written to the connection config file.
type Settings struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// LogFile is where structured logs go; "-" means stderr.
	LogFile string `mapstructure:"log_file"`

	// PollInterval is the auto-poll period.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// RepollDelay is the wait before re-checking status after an accepted
	// start/stop. Zero disables the follow-up poll.
	RepollDelay time.Duration `mapstructure:"repoll_delay"`

	// NATSURL enables event forwarding when set.
	NATSURL string `mapstructure:"nats_url"`

	// NATSSubject is the subject lifecycle events are published on.
	NATSSubject string `mapstructure:"nats_subject"`

	// MetricsAddr enables the Prometheus /metrics listener when set.
	MetricsAddr string `mapstructure:"metrics_addr"`

	// Trace exports lifecycle spans to stderr.
	Trace bool `mapstructure:"trace"`
}

// DefaultSettings returns Settings with sensible defaults.
func DefaultSettings() *Settings {
	logFile := "-"
	if paths, err := GetPaths(); err == nil {
		logFile = paths.LogFile
	}

	return &Settings{
		LogLevel:     "info",
		LogFile:      logFile,
		PollInterval: 30 * time.Second,
		RepollDelay:  2 * time.Second,
		NATSSubject:  "gcpvm.events",
	}
}

// SetDefaults registers the default settings on v.
func SetDefaults(v *viper.Viper) {
	d := DefaultSettings()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("repoll_delay", d.RepollDelay)
	v.SetDefault("nats_url", d.NATSURL)
	v.SetDefault("nats_subject", d.NATSSubject)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("trace", d.Trace)
}

// LoadSettings resolves Settings from v: bound flags, then GCPVM_* variables,
// then defaults.
func LoadSettings(v *viper.Viper) (*Settings, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate rejects settings the coordinator cannot run with.
func (s *Settings) Validate() error {
	if s.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", s.PollInterval)
	}
	if s.RepollDelay < 0 {
		return fmt.Errorf("repoll delay must not be negative, got %s", s.RepollDelay)
	}
	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", s.LogLevel)
	}
	return nil
}
