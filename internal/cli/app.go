package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/javanstorm/gcpvm/internal/auth"
	"github.com/javanstorm/gcpvm/internal/config"
	"github.com/javanstorm/gcpvm/internal/logging"
	"github.com/javanstorm/gcpvm/internal/metrics"
	"github.com/javanstorm/gcpvm/internal/notify"
	"github.com/javanstorm/gcpvm/internal/session"
	"github.com/javanstorm/gcpvm/internal/timing"
	"github.com/javanstorm/gcpvm/internal/tracing"
	"go.uber.org/zap"
)

// shutdownTimeout bounds draining and flushing when a command exits.
const shutdownTimeout = 5 * time.Second

// app is everything a command needs, built from flags and environment.
type app struct {
	settings *config.Settings
	log      *zap.Logger
	closeLog func()
	store    *config.Store
	timer    *timing.Timer

	metrics    *metrics.Recorder
	metricsSrv *http.Server
	tracer     *tracing.Provider
	publisher  notify.Publisher
	session    *session.Session

	stopForwarder context.CancelFunc
}

// newBase builds settings, logging and the config store. It never touches
// the network.
func newBase() (*app, error) {
	var timer *timing.Timer
	if timingEnabled {
		timer = timing.New()
	}

	settings, err := config.LoadSettings(v)
	if err != nil {
		return nil, err
	}
	log, closeLog, err := logging.New(settings.LogLevel, settings.LogFile)
	if err != nil {
		return nil, err
	}

	store, err := openStore(log)
	if err != nil {
		closeLog()
		return nil, err
	}
	timer.Mark("settings")

	return &app{settings: settings, log: log, closeLog: closeLog, store: store, timer: timer}, nil
}

func openStore(log *zap.Logger) (*config.Store, error) {
	if configPath != "" {
		return config.NewStore(configPath, log), nil
	}
	store, err := config.DefaultStore(log)
	if err != nil {
		return nil, fmt.Errorf("locate config: %w", err)
	}
	return store, nil
}

// newApp builds the full runtime: tracing, metrics, event forwarding and an
// opened session.
func newApp(ctx context.Context) (*app, error) {
	a, err := newBase()
	if err != nil {
		return nil, err
	}

	a.tracer, err = tracing.Setup(a.settings.Trace, os.Stderr)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.metrics = metrics.New()
	if a.settings.MetricsAddr != "" {
		if err := a.serveMetrics(a.settings.MetricsAddr); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.session = session.New(session.Options{
		Store:          a.store,
		Authenticator:  auth.New(nil, a.log),
		Logger:         a.log,
		Metrics:        a.metrics,
		TracerProvider: a.tracer,
		PollInterval:   a.settings.PollInterval,
		RepollDelay:    a.settings.RepollDelay,
	})

	openErr := a.session.Open(ctx)
	a.timer.Mark("auth")

	if a.settings.NATSURL != "" {
		a.startForwarder()
	}
	if openErr != nil {
		return a, openErr
	}
	return a, nil
}

func (a *app) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	a.metricsSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := a.metricsSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	a.log.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	return nil
}

// startForwarder publishes session events to NATS. A connection failure is
// logged and otherwise ignored.
func (a *app) startForwarder() {
	pub, err := notify.NewNATSPublisher(a.settings.NATSURL, a.log)
	if err != nil {
		a.log.Warn("event forwarding disabled", zap.Error(err))
		return
	}
	a.publisher = pub

	events, unsubscribe := a.session.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	a.stopForwarder = func() {
		cancel()
		unsubscribe()
	}
	fwd := notify.NewForwarder(pub, a.settings.NATSSubject, func() string {
		return a.session.Config().InstanceName
	}, a.log)
	go fwd.Run(ctx, events)
}

// Close releases everything newApp or newBase created. It is safe on a
// partially built app.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.session != nil {
		if err := a.session.Close(ctx); err != nil {
			a.log.Warn("session close", zap.Error(err))
		}
	}
	if a.stopForwarder != nil {
		a.stopForwarder()
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.metricsSrv != nil {
		_ = a.metricsSrv.Shutdown(ctx)
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.log.Warn("trace flush", zap.Error(err))
		}
	}
	if a.timer != nil {
		a.timer.Report(os.Stderr)
		a.log.Debug("command timing", a.timer.Fields()...)
	}
	a.closeLog()
}
