package cmd

import (
	"fmt"

	"github.com/giantswarm/lantern/internal/app"
	"github.com/giantswarm/lantern/internal/cli"

	"github.com/spf13/cobra"
)

var (
	serveTransport string
	serveListen    string
	serveYolo      bool
	serveNoWatch   bool
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lantern meta-tools to an agent",
		Long: `Connects every configured server, publishes the manifests and exposes
four meta-tools over MCP:

  list_servers        servers, their state and operation counts
  read_manifest       the compact manifest of one server
  describe_operation  the full schema of one operation
  call_operation      invoke an operation with JSON arguments

The configuration directory is watched; adding, changing or removing a server
definition reconnects the affected servers and republishes their manifests.

Use --transport stdio (default) when the agent spawns lantern, or
--transport streamable-http with --listen to serve over HTTP.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().StringVar(&serveTransport, "transport", app.ServeStdio, "Meta-tools transport (stdio, streamable-http)")
	cmd.Flags().StringVar(&serveListen, "listen", ":8090", "Listen address for streamable-http")
	cmd.Flags().BoolVar(&serveYolo, "yolo", false, "Disable the denylist for destructive operations (use with caution)")
	cmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not reload the configuration when it changes")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	switch serveTransport {
	case app.ServeStdio, app.ServeStreamableHTTP:
	default:
		return &cli.UsageError{Err: fmt.Errorf("unsupported transport %q (supported: %s, %s)", serveTransport, app.ServeStdio, app.ServeStreamableHTTP)}
	}

	application, err := newApplication(cmd, serveYolo)
	if err != nil {
		return err
	}
	defer closeApplication(cmd, application)

	return application.Serve(commandContext(cmd), app.ServeOptions{
		Transport: serveTransport,
		Listen:    serveListen,
		Version:   GetVersion(),
		Watch:     !serveNoWatch,
		Stdin:     cmd.InOrStdin(),
		Stdout:    cmd.OutOrStdout(),
	})
}
