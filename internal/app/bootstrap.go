package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/giantswarm/lantern/internal/config"
	"github.com/giantswarm/lantern/internal/invoker"
	"github.com/giantswarm/lantern/internal/manifest"
	"github.com/giantswarm/lantern/internal/registry"
	"github.com/giantswarm/lantern/internal/resolver"
	"github.com/giantswarm/lantern/internal/session"
	"github.com/giantswarm/lantern/internal/telemetry"
	"github.com/giantswarm/lantern/internal/transport"
	"github.com/giantswarm/lantern/pkg/logging"
)

// Application wires the runtime together: configuration, the server
// registry, the manifest store, the invoker and telemetry.
//
// The Application follows a two-phase pattern:
//  1. Bootstrap: NewApplication loads configuration and builds every component
//  2. Execution: commands connect, publish, invoke or serve
//
// Example usage:
//
//	app, err := app.NewApplication(ctx, app.NewConfig(false, false, ""))
//	if err != nil {
//	    return err
//	}
//	defer app.Close(ctx)
//	app.Connect(ctx)
type Application struct {
	config *Config
	cfg    config.LanternConfig

	registry *registry.Registry
	resolver *resolver.Resolver
	invoker  *invoker.Invoker
	store    manifest.Store
	metrics  *telemetry.Metrics

	factory           transport.Factory
	shutdownTelemetry telemetry.ShutdownFunc
}

// Option customizes an Application.
type Option func(*Application)

// WithTransportFactory replaces the transport factory for every server.
func WithTransportFactory(f transport.Factory) Option {
	return func(a *Application) { a.factory = f }
}

// WithLogOutput sends logs to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(a *Application) {
		logging.Init(a.config.logLevel(), w, a.config.LogFormat)
	}
}

// NewApplication performs the bootstrap sequence:
//
//  1. Configures logging on stderr, so stdout stays free for command output
//     and the stdio meta-tools server
//  2. Loads the lantern configuration from cfg.ConfigPath (default ~/.config/lantern)
//  3. Sets up trace export when an OTLP endpoint is configured
//  4. Builds the registry, resolver, invoker and manifest store
//
// No server is connected yet.
func NewApplication(ctx context.Context, cfg *Config, opts ...Option) (*Application, error) {
	logging.Init(cfg.logLevel(), os.Stderr, cfg.LogFormat)

	a := &Application{config: cfg, factory: transport.New}
	for _, opt := range opts {
		opt(a)
	}

	if cfg.ConfigPath == "" {
		path, err := config.GetDefaultConfigPath()
		if err != nil {
			return nil, err
		}
		cfg.ConfigPath = path
	}

	lanternCfg, err := config.LoadConfig(cfg.ConfigPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration from %s", cfg.ConfigPath)
		return nil, fmt.Errorf("failed to load configuration from %s: %w", cfg.ConfigPath, err)
	}
	cfg.LanternConfig = &lanternCfg
	a.cfg = lanternCfg

	a.shutdownTelemetry, err = telemetry.Setup(ctx, lanternCfg.Telemetry)
	if err != nil {
		return nil, err
	}

	a.metrics, err = telemetry.DefaultMetrics()
	if err != nil {
		logging.Warn("Bootstrap", "Metrics disabled: %v", err)
		a.metrics = nil
	}

	a.registry, err = registry.New(lanternCfg.Servers,
		registry.WithTransportFactory(a.factory),
		registry.WithSessionOptions(a.sessionOptions()...),
	)
	if err != nil {
		_ = a.shutdownTelemetry(ctx)
		return nil, fmt.Errorf("failed to build server registry: %w", err)
	}

	a.store, err = manifest.NewStore(lanternCfg)
	if err != nil {
		_ = a.shutdownTelemetry(ctx)
		return nil, fmt.Errorf("failed to open manifest store: %w", err)
	}

	a.resolver = resolver.New(a.registry)
	a.invoker = invoker.New(invoker.WithMetrics(a.metrics))

	logging.Info("Bootstrap", "Loaded %d servers from %s", len(lanternCfg.Servers), cfg.ConfigPath)
	return a, nil
}

// Registry returns the server registry.
func (a *Application) Registry() *registry.Registry { return a.registry }

// Resolver returns the operation resolver.
func (a *Application) Resolver() *resolver.Resolver { return a.resolver }

// Invoker returns the invoker.
func (a *Application) Invoker() *invoker.Invoker { return a.invoker }

// Store returns the manifest store.
func (a *Application) Store() manifest.Store { return a.store }

// LanternConfig returns the configuration the application was built from.
func (a *Application) LanternConfig() config.LanternConfig { return a.cfg }

// ConfigPath returns the configuration directory.
func (a *Application) ConfigPath() string { return a.config.ConfigPath }

// Connect connects every configured server concurrently.
func (a *Application) Connect(ctx context.Context) map[string]error {
	return a.registry.ConnectAll(ctx)
}

// Publish writes or withdraws the manifest of every server.
func (a *Application) Publish(ctx context.Context) []manifest.PublishResult {
	return manifest.Publish(ctx, a.registry, a.store)
}

// Close disconnects every server, closes the store and flushes telemetry.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if err := a.registry.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.shutdownTelemetry(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *Application) sessionOptions() []session.Option {
	opts := []session.Option{session.WithMetrics(a.metrics)}
	if denied := session.Denylist(a.cfg.DenyDestructive, a.config.Yolo, a.cfg.DestructiveOperations); len(denied) > 0 {
		logging.Info("Bootstrap", "Hiding %d destructive operations", len(denied))
		opts = append(opts, session.WithDenylist(denied))
	}
	return opts
}
