package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giantswarm/lantern/internal/config"
	"github.com/giantswarm/lantern/internal/metatools"
	"github.com/giantswarm/lantern/pkg/logging"
)

// Serve transports for the meta-tools server.
const (
	ServeStdio          = "stdio"
	ServeStreamableHTTP = "streamable-http"
)

// ServeOptions configures Serve.
type ServeOptions struct {
	// Transport is ServeStdio or ServeStreamableHTTP.
	Transport string
	// Listen is the address for ServeStreamableHTTP, e.g. ":8090".
	Listen string
	// Version is reported to connecting clients.
	Version string
	// Watch reloads the configuration when files change.
	Watch bool
	// Stdin and Stdout override the process streams for ServeStdio.
	Stdin  io.Reader
	Stdout io.Writer
}

// Serve runs lantern as a long-lived meta-tools server.
//
// Behavior:
//   - Connects every configured server and publishes the manifests
//   - Optionally watches the configuration directory and applies changes
//   - Republishes manifests whenever the server set changes
//   - Exposes the meta-tools over stdio or streamable HTTP until ctx ends
//     or SIGINT/SIGTERM is received
func (a *Application) Serve(ctx context.Context, opts ServeOptions) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Refresh(ctx)

	reloads := make(chan config.LanternConfig, 1)
	if opts.Watch {
		watcher := config.NewWatcher(a.config.ConfigPath, 0, func(cfg config.LanternConfig, err error) {
			if err != nil {
				logging.Warn("Serve", "Ignoring invalid configuration: %v", err)
				return
			}
			// Only the latest configuration matters.
			select {
			case <-reloads:
			default:
			}
			reloads <- cfg
		})
		if err := watcher.Start(ctx); err != nil {
			logging.Warn("Serve", "Configuration watching disabled: %v", err)
		} else {
			defer func() { _ = watcher.Stop() }()
		}
	}

	go a.maintain(ctx, reloads)

	provider := metatools.NewProvider(a.registry, a.store, a.invoker)
	srv := metatools.NewServer(provider, opts.Version)

	switch opts.Transport {
	case "", ServeStdio:
		in, out := opts.Stdin, opts.Stdout
		if in == nil {
			in = os.Stdin
		}
		if out == nil {
			out = os.Stdout
		}
		return srv.ServeStdio(ctx, in, out)
	case ServeStreamableHTTP:
		return srv.ServeHTTP(ctx, opts.Listen)
	default:
		return fmt.Errorf("unsupported serve transport %q (supported: %s, %s)", opts.Transport, ServeStdio, ServeStreamableHTTP)
	}
}

// maintain applies configuration reloads and republishes manifests until
// ctx is done. It is the only goroutine mutating the registry while serving.
func (a *Application) maintain(ctx context.Context, reloads <-chan config.LanternConfig) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg := <-reloads:
			if _, err := a.ApplyConfig(cfg); err != nil {
				logging.Warn("Serve", "Configuration applied with errors: %v", err)
			}
		case <-a.registry.Updates():
			start := time.Now()
			a.Refresh(ctx)
			logging.Debug("Serve", "Manifests republished in %s", time.Since(start).Round(time.Millisecond))
		}
	}
}
