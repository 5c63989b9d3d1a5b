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

// StreamableHTTPTransport talks to a remote server over streamable HTTP.
// Requests are independent HTTP exchanges and may run concurrently.
type StreamableHTTPTransport struct {
	baseTransport

	newClient func(ctx context.Context) (mcpClient, error)
}

// NewStreamableHTTPTransport creates a transport for server.URL.
func NewStreamableHTTPTransport(server api.CapabilityServer) *StreamableHTTPTransport {
	t := &StreamableHTTPTransport{
		baseTransport: baseTransport{server: server},
	}
	t.newClient = t.dial
	return t
}

// Kind implements Transport.
func (t *StreamableHTTPTransport) Kind() api.TransportKind { return api.TransportStreamableHTTP }

// Open creates the HTTP client and performs the handshake.
func (t *StreamableHTTPTransport) Open(ctx context.Context) error {
	if t.isOpen() {
		return nil
	}

	logging.Debug("Transport", "Connecting to streamable-http server %s at %s", t.server.Name, t.server.URL)

	c, err := t.newClient(ctx)
	if err != nil {
		return &api.ConnectionError{Server: t.server.Name, Err: fmt.Errorf("failed to create client: %w", err)}
	}

	if err := t.handshake(ctx, c); err != nil {
		return err
	}

	t.setClient(c)
	return nil
}

// ListOperations implements Transport.
func (t *StreamableHTTPTransport) ListOperations(ctx context.Context) ([]api.Operation, error) {
	return t.listOperations(ctx)
}

// Invoke implements Transport.
func (t *StreamableHTTPTransport) Invoke(ctx context.Context, operation string, arguments json.RawMessage) (*api.Envelope, error) {
	return t.invoke(ctx, operation, arguments)
}

// Close implements Transport.
func (t *StreamableHTTPTransport) Close() error {
	return t.close()
}

func (t *StreamableHTTPTransport) dial(_ context.Context) (mcpClient, error) {
	var opts []transport.StreamableHTTPCOption
	if len(t.server.Headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(t.server.Headers))
	}
	return client.NewStreamableHttpClient(t.server.URL, opts...)
}
