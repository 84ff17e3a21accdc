package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/voicekit/capture"
	"github.com/kbukum/voicekit/config"
	"github.com/kbukum/voicekit/engine"
	"github.com/kbukum/voicekit/logger"
	"github.com/kbukum/voicekit/observability"
	"github.com/kbukum/voicekit/transcribe"
	"github.com/kbukum/voicekit/version"
)

// App is a fully wired voicekit instance.
type App struct {
	Cfg     *config.Config
	Log     *logger.Logger
	Engine  *engine.Engine
	Session *capture.Session
	Backend transcribe.Provider

	gracefulTimeout time.Duration
	shutdown        []func(context.Context) error
}

type options struct {
	cfg        *config.Config
	loaderOpts []config.LoaderOption
	listener   engine.Listener
	timeout    time.Duration
}

// Option customizes New.
type Option func(*options)

// WithConfig supplies an already loaded configuration instead of
// loading one from disk.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLoaderOptions forwards options to config.Load.
func WithLoaderOptions(opts ...config.LoaderOption) Option {
	return func(o *options) { o.loaderOpts = append(o.loaderOpts, opts...) }
}

// WithListener registers the engine lifecycle listener.
func WithListener(l engine.Listener) Option {
	return func(o *options) { o.listener = l }
}

// WithGracefulTimeout bounds the shutdown sequence.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// New wires an App around the given microphone capability. The
// recorder and permissions come from the caller; everything else is
// built from configuration.
func New(ctx context.Context, rec capture.Recorder, perms capture.Permissions, opts ...Option) (*App, error) {
	o := options{timeout: 15 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.cfg
	if cfg == nil {
		loaded, err := config.Load(o.loaderOpts...)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	log := logger.New(&cfg.Logging, cfg.App.Name)
	a := &App{
		Cfg:             cfg,
		Log:             log,
		gracefulTimeout: o.timeout,
	}

	metrics, err := a.initTelemetry(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := transcribe.New(cfg.Backend,
		transcribe.WithLogger(log),
		transcribe.WithMetrics(metrics),
	)
	a.Backend = client

	a.Session = capture.NewSession(cfg.Capture, rec, perms, capture.WithLogger(log))

	engineOpts := []engine.Option{
		engine.WithLogger(log),
		engine.WithMetrics(metrics),
		engine.WithHistoryLimit(cfg.History.Limit),
	}
	if o.listener != nil {
		engineOpts = append(engineOpts, engine.WithListener(o.listener))
	}
	a.Engine = engine.New(a.Session, client, engineOpts...)

	log.Info("application wired", logger.Fields(
		"app", cfg.App.Name,
		"version", version.Short(),
		"backend", cfg.Backend.BaseURL,
	))
	return a, nil
}

// initTelemetry starts OTLP export when enabled. Returns nil metrics
// when telemetry is off; the engine and client treat that as a no-op.
func (a *App) initTelemetry(ctx context.Context, cfg *config.Config) (*observability.Metrics, error) {
	if !cfg.Telemetry.Enabled {
		return nil, nil
	}

	tp, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    cfg.App.Name,
		ServiceVersion: version.Short(),
		Environment:    cfg.App.Environment,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.shutdown = append(a.shutdown, tp.Shutdown)

	mp, err := observability.InitMeter(ctx, observability.MeterConfig{
		ServiceName:    cfg.App.Name,
		ServiceVersion: version.Short(),
		Environment:    cfg.App.Environment,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("init meter: %w", err)
	}
	a.shutdown = append(a.shutdown, mp.Shutdown)

	metrics, err := observability.NewMetrics(mp.Meter(cfg.App.Name))
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return metrics, nil
}

// Run blocks until the context is cancelled or a SIGINT/SIGTERM
// arrives, then shuts down. An active recording is cancelled rather
// than transcribed.
func (a *App) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	a.Log.Info("ready")
	select {
	case sig := <-sigCh:
		a.Log.Info("shutdown signal received", logger.Fields("signal", sig.String()))
	case <-ctx.Done():
	}
	return a.Close()
}

// Close cancels any active recording, waits for an in-flight
// transcription, and flushes telemetry.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	a.Engine.Cancel(ctx)
	a.Engine.Wait()

	var firstErr error
	for _, fn := range a.shutdown {
		if err := fn(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.Log.Info("shutdown complete")
	return firstErr
}
