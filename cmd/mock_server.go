package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/testing/mock"
	"github.com/giantswarm/lantern/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	mockTransport string
	mockListen    string
)

// newMockServerCmd runs a scripted MCP server from a YAML definition. It is
// hidden and exists for integration tests and local experiments.
func newMockServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "mock-server FILE",
		Short:  "Run a mock capability server from a YAML definition",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE:   runMockServer,
	}
	cmd.Flags().StringVar(&mockTransport, "transport", string(api.TransportStdio), "Transport (stdio, streamable-http, sse)")
	cmd.Flags().StringVar(&mockListen, "listen", "127.0.0.1:0", "Listen address for HTTP transports")
	return cmd
}

func runMockServer(cmd *cobra.Command, args []string) error {
	server, err := mock.NewServerFromFile(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kind := api.TransportKind(mockTransport)
	if kind == api.TransportStdio {
		return server.Start(ctx)
	}

	httpServer, err := mock.NewHTTPServer(server, kind)
	if err != nil {
		return err
	}
	if _, err := httpServer.StartOnAddr(ctx, mockListen); err != nil {
		return err
	}
	logging.Info("MockServer", "Mock server %s listening at %s", server.Name(), httpServer.Endpoint())
	fmt.Fprintln(cmd.OutOrStdout(), httpServer.Endpoint())

	<-ctx.Done()
	return httpServer.Stop(context.WithoutCancel(ctx))
}
