package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Store persists the connection Config as a JSON object.
type Store struct {
	path string
	log  *zap.Logger
}

// NewStore creates a store backed by the file at path.
func NewStore(path string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{path: path, log: log.Named("config")}
}

// DefaultStore creates a store at the per-user config location.
func DefaultStore(log *zap.Logger) (*Store, error) {
	paths, err := GetPaths()
	if err != nil {
		return nil, err
	}
	return NewStore(paths.ConfigFile, log), nil
}

// Path returns the config file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted configuration. A missing file yields an empty
// Config; so does an unreadable or corrupt one, which is logged.
func (s *Store) Load() Config {
	return s.read(false)
}

// Resolve loads the persisted configuration and applies the GCP_* environment
// overrides on top of it. Empty variables do not override.
func (s *Store) Resolve() Config {
	return s.read(true)
}

func (s *Store) read(withEnv bool) Config {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("json")

	if withEnv {
		for _, b := range envBindings {
			// BindEnv only fails when called without a key.
			_ = v.BindEnv(b.key, b.env)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			s.log.Warn("ignoring unreadable config file", zap.String("path", s.path), zap.Error(err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		s.log.Warn("failed to decode config", zap.String("path", s.path), zap.Error(err))
		return Config{}
	}
	return cfg
}

// Save validates cfg and writes it. An invalid cfg returns a *ValidationError
// and storage is left untouched; write failures return an *IOError.
func (s *Store) Save(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return &IOError{Op: "create dir for", Path: s.path, Err: err}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return &IOError{Op: "encode", Path: s.path, Err: err}
	}

	// Write atomically
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return &IOError{Op: "write", Path: s.path, Err: err}
	}

	s.log.Info("configuration saved", zap.String("path", s.path))
	return nil
}

// Clear removes the persisted configuration. Clearing an absent file succeeds.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &IOError{Op: "remove", Path: s.path, Err: err}
	}
	s.log.Info("configuration cleared", zap.String("path", s.path))
	return nil
}
