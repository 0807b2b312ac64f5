// Package session is the boundary the text menu and the GUI talk to. It
// owns the configuration, the single controller/coordinator pair built from
// it, the last displayed status, and the session log.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	infinity "github.com/Code-Hex/go-infinity-channel"
	"github.com/javanstorm/gcpvm/internal/auth"
	"github.com/javanstorm/gcpvm/internal/config"
	"github.com/javanstorm/gcpvm/internal/coordinator"
	"github.com/javanstorm/gcpvm/internal/metrics"
	"github.com/javanstorm/gcpvm/internal/vm"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrNotConfigured is returned for requests made while no valid,
// authenticated configuration is active.
var ErrNotConfigured = errors.New("VM manager not initialized, configure the application first")

// Options configures a Session.
type Options struct {
	Store         *config.Store
	Authenticator *auth.Authenticator
	Logger        *zap.Logger
	Metrics       *metrics.Recorder

	// TracerProvider is handed to the controller; nil uses the global one.
	TracerProvider trace.TracerProvider

	PollInterval time.Duration
	RepollDelay  time.Duration
}

// Session is safe for concurrent use.
type Session struct {
	store        *config.Store
	authn        *auth.Authenticator
	log          *zap.Logger
	metrics      *metrics.Recorder
	tp           trace.TracerProvider
	pollInterval time.Duration
	repollDelay  time.Duration

	// reconf serializes Open, SetConfig, ResetConfig and Close.
	reconf sync.Mutex

	mu       sync.Mutex
	cfg      config.Config
	identity string
	coord    *coordinator.Coordinator
	pumpDone chan struct{}
	display  string
	last     vm.Status
	stale    bool
	autoPoll bool
	entries  []Entry
	subs     map[int]*infinity.Channel[coordinator.Event]
	nextSub  int
	closed   bool
}

// New creates an unconfigured session. Call Open to load the stored
// configuration.
func New(opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	authn := opts.Authenticator
	if authn == nil {
		authn = auth.New(nil, log)
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = coordinator.DefaultPollInterval
	}
	return &Session{
		store:        opts.Store,
		authn:        authn,
		log:          log.Named("session"),
		metrics:      opts.Metrics,
		tp:           opts.TracerProvider,
		pollInterval: poll,
		repollDelay:  opts.RepollDelay,
		display:      vm.StatusUnknown.String(),
		subs:         make(map[int]*infinity.Channel[coordinator.Event]),
	}
}

// Open resolves the configuration (environment over file) and, when it is
// complete, authenticates and arms a coordinator. An incomplete
// configuration is not an error; the session stays unconfigured.
func (s *Session) Open(ctx context.Context) error {
	s.reconf.Lock()
	defer s.reconf.Unlock()

	cfg := s.store.Resolve()
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	if err := cfg.Validate(); err != nil {
		s.logf(zapcore.WarnLevel, "Configuration incomplete: %v", err)
		return nil
	}
	return s.arm(ctx, cfg)
}

// Config returns the active configuration.
func (s *Session) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// ConfigPath returns where the configuration is stored.
func (s *Session) ConfigPath() string {
	return s.store.Path()
}

// Identity returns the service account of the active credential, or "".
func (s *Session) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Configured reports whether a controller is armed.
func (s *Session) Configured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coord != nil
}

// SetConfig validates and saves cfg, drains the current controller, then
// authenticates with cfg and arms a new one. When authentication fails the
// configuration stays saved but no controller is armed.
func (s *Session) SetConfig(ctx context.Context, cfg config.Config) error {
	s.reconf.Lock()
	defer s.reconf.Unlock()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.store.Save(cfg); err != nil {
		s.logf(zapcore.ErrorLevel, "Error saving configuration: %v", err)
		return err
	}
	s.logf(zapcore.InfoLevel, "Configuration saved to %s", s.store.Path())

	if err := s.disarm(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = cfg
	s.resetDisplayLocked()
	s.mu.Unlock()

	return s.arm(ctx, cfg)
}

// ResetConfig deletes the saved configuration and drops the controller.
func (s *Session) ResetConfig(ctx context.Context) error {
	s.reconf.Lock()
	defer s.reconf.Unlock()

	if err := s.store.Clear(); err != nil {
		s.logf(zapcore.ErrorLevel, "Error clearing configuration: %v", err)
		return err
	}
	err := s.disarm(ctx)

	s.mu.Lock()
	s.cfg = config.Config{}
	s.autoPoll = false
	s.resetDisplayLocked()
	s.mu.Unlock()

	s.logf(zapcore.InfoLevel, "Configuration cleared")
	return err
}

// Close drains the controller and closes every subscription.
func (s *Session) Close(ctx context.Context) error {
	s.reconf.Lock()
	defer s.reconf.Unlock()

	err := s.disarm(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return err
	}
	s.closed = true
	for id, sub := range s.subs {
		closeSub(sub)
		delete(s.subs, id)
	}
	return err
}

func (s *Session) arm(ctx context.Context, cfg config.Config) error {
	h, err := s.authn.Authenticate(ctx, cfg)
	if err != nil {
		s.logf(zapcore.ErrorLevel, "Authentication failed: %v", err)
		return err
	}

	opts := []vm.Option{vm.WithLogger(s.log)}
	if s.tp != nil {
		opts = append(opts, vm.WithTracerProvider(s.tp))
	}
	ctrl := vm.NewController(h, cfg, opts...)
	coord := coordinator.New(ctrl, coordinator.Options{
		Logger:      s.log,
		Metrics:     s.metrics,
		RepollDelay: s.repollDelay,
	})
	done := make(chan struct{})

	s.mu.Lock()
	s.coord = coord
	s.pumpDone = done
	s.identity = h.Email()
	autoPoll := s.autoPoll
	s.mu.Unlock()

	go s.pump(coord.Events(), done)
	if autoPoll {
		coord.StartAutoPoll(s.pollInterval)
	}

	s.logf(zapcore.InfoLevel, "Connected to %s as %s", ctrl.Target(), h.Email())
	return nil
}

// disarm closes the active coordinator and waits until its final events
// have been delivered to subscribers.
func (s *Session) disarm(ctx context.Context) error {
	s.mu.Lock()
	coord, done := s.coord, s.pumpDone
	s.coord, s.pumpDone = nil, nil
	s.identity = ""
	s.mu.Unlock()

	if coord == nil {
		return nil
	}
	err := coord.Close(ctx)
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	if err != nil {
		s.logf(zapcore.WarnLevel, "Previous operation did not finish: %v", err)
		return fmt.Errorf("drain controller: %w", err)
	}
	return nil
}

func (s *Session) resetDisplayLocked() {
	s.display = vm.StatusUnknown.String()
	s.last = vm.StatusUnknown
	s.stale = false
}
