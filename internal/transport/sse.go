package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/pkg/logging"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
)

// SSETransport talks to a remote server using Server-Sent Events.
type SSETransport struct {
	baseTransport

	newClient func(ctx context.Context) (mcpClient, error)
}

// NewSSETransport creates a transport for server.URL.
func NewSSETransport(server api.CapabilityServer) *SSETransport {
	t := &SSETransport{
		baseTransport: baseTransport{server: server},
	}
	t.newClient = t.dial
	return t
}

// Kind implements Transport.
func (t *SSETransport) Kind() api.TransportKind { return api.TransportSSE }

// Open starts the event stream and performs the handshake.
func (t *SSETransport) Open(ctx context.Context) error {
	if t.isOpen() {
		return nil
	}

	logging.Debug("Transport", "Connecting to sse server %s at %s", t.server.Name, t.server.URL)

	c, err := t.newClient(ctx)
	if err != nil {
		return &api.ConnectionError{Server: t.server.Name, Err: err}
	}

	if err := t.handshake(ctx, c); err != nil {
		return err
	}

	t.setClient(c)
	return nil
}

// ListOperations implements Transport.
func (t *SSETransport) ListOperations(ctx context.Context) ([]api.Operation, error) {
	return t.listOperations(ctx)
}

// Invoke implements Transport.
func (t *SSETransport) Invoke(ctx context.Context, operation string, arguments json.RawMessage) (*api.Envelope, error) {
	return t.invoke(ctx, operation, arguments)
}

// Close implements Transport.
func (t *SSETransport) Close() error {
	return t.close()
}

// dial creates the client and starts the event stream. The stream outlives
// the Open call, so it is detached from ctx cancellation.
func (t *SSETransport) dial(ctx context.Context) (mcpClient, error) {
	var opts []transport.ClientOption
	if len(t.server.Headers) > 0 {
		opts = append(opts, transport.WithHeaders(t.server.Headers))
	}

	c, err := client.NewSSEMCPClient(t.server.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	if err := c.Start(context.WithoutCancel(ctx)); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to start event stream: %w", err)
	}
	return c, nil
}
