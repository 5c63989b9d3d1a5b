package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	clientName    = "lantern"
	clientVersion = "1.0.0"
)

// Transport is the uniform contract over every connection kind. A Transport
// is bound to one server descriptor and owns at most one live connection.
type Transport interface {
	// Kind returns the connection kind of this transport.
	Kind() api.TransportKind
	// Open establishes the connection and performs the protocol handshake.
	Open(ctx context.Context) error
	// ListOperations returns the server's operations in server order.
	ListOperations(ctx context.Context) ([]api.Operation, error)
	// Invoke calls an operation with JSON encoded arguments and returns the raw envelope.
	Invoke(ctx context.Context, operation string, arguments json.RawMessage) (*api.Envelope, error)
	// Close releases the connection. It is safe to call more than once.
	Close() error
}

// Factory builds a transport for a server descriptor.
type Factory func(server api.CapabilityServer) (Transport, error)

// Compile-time interface compliance checks
var (
	_ Transport = (*StdioTransport)(nil)
	_ Transport = (*StreamableHTTPTransport)(nil)
	_ Transport = (*SSETransport)(nil)
)

// mcpClient is the subset of the mcp-go client used by the transports.
type mcpClient interface {
	Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// baseTransport implements the protocol operations shared by every variant.
type baseTransport struct {
	server api.CapabilityServer
	// abort, when set, forcibly stops whatever backs the client.
	abort func()

	mu     sync.RWMutex
	client mcpClient
}

// checkConnected returns the live client or a ConnectionError.
// Caller must hold at least a read lock on mu.
func (b *baseTransport) checkConnected() (mcpClient, error) {
	if b.client == nil {
		return nil, &api.ConnectionError{Server: b.server.Name, Err: errors.New("transport not open")}
	}
	return b.client, nil
}

// handshake performs the MCP initialize exchange. On failure the client is
// aborted and closed so no half-open connection or child process survives.
func (b *baseTransport) handshake(ctx context.Context, c mcpClient) error {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}
	req.Params.Capabilities = mcp.ClientCapabilities{}

	result, err := c.Initialize(ctx, req)
	if err != nil {
		if b.abort != nil {
			b.abort()
		}
		if closeErr := c.Close(); closeErr != nil {
			logging.Debug("Transport", "Error closing failed client for %s: %v", b.server.Name, closeErr)
		}
		return mapError(b.server, "connect", "", err)
	}

	logging.Debug("Transport", "Handshake with %s complete. Server: %s, Version: %s",
		b.server.Name, result.ServerInfo.Name, result.ServerInfo.Version)
	if result.Capabilities.Tools == nil {
		logging.Warn("Transport", "Server %s does not advertise tool support", b.server.Name)
	}
	return nil
}

func (b *baseTransport) listOperations(ctx context.Context) ([]api.Operation, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, err := b.checkConnected()
	if err != nil {
		return nil, err
	}

	result, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, mapError(b.server, "list", "", err)
	}

	ops := make([]api.Operation, 0, len(result.Tools))
	for _, tool := range result.Tools {
		op, err := operationFromTool(b.server.Name, tool)
		if err != nil {
			return nil, &api.ProtocolError{Server: b.server.Name, Err: err}
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (b *baseTransport) invoke(ctx context.Context, operation string, arguments json.RawMessage) (*api.Envelope, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, err := b.checkConnected()
	if err != nil {
		return nil, err
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = operation
	if len(arguments) > 0 {
		req.Params.Arguments = arguments
	}

	result, err := c.CallTool(ctx, req)
	if err != nil {
		return nil, mapError(b.server, "invoke", operation, err)
	}
	return envelopeFromResult(b.server.Name, operation, result)
}

func (b *baseTransport) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		return nil
	}

	err := b.client.Close()
	b.client = nil
	return err
}

func (b *baseTransport) setClient(c mcpClient) {
	b.mu.Lock()
	b.client = c
	b.mu.Unlock()
}

func (b *baseTransport) isOpen() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.client != nil
}

// mapError converts a raw client error into the typed taxonomy for the given phase.
func mapError(server api.CapabilityServer, phase, operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &api.TimeoutError{
			Server:    server.Name,
			Operation: operation,
			Phase:     phase,
			Timeout:   server.Timeout,
			Err:       err,
		}
	}

	switch phase {
	case "connect":
		return &api.ConnectionError{Server: server.Name, Err: err}
	case "list":
		return &api.ProtocolError{Server: server.Name, Err: err}
	default:
		// mcp-go rejects content kinds it does not know while decoding the result.
		if strings.Contains(err.Error(), "unsupported content type") {
			return &api.MalformedResponseError{
				Server:    server.Name,
				Operation: operation,
				Reason:    "unrecognized content kind",
				Err:       err,
			}
		}
		return &api.InvocationError{Server: server.Name, Operation: operation, Err: err}
	}
}

// New creates the transport matching the server's transport kind.
//
// Supported kinds:
//   - "stdio": spawns Command with Args and Env and talks over its standard streams
//   - "streamable-http": connects to URL with Headers using streamable HTTP
//   - "sse": connects to URL with Headers using Server-Sent Events
func New(server api.CapabilityServer) (Transport, error) {
	switch server.Transport {
	case api.TransportStdio:
		if server.Command == "" {
			return nil, fmt.Errorf("command is required for stdio transport")
		}
		return NewStdioTransport(server), nil

	case api.TransportStreamableHTTP:
		if server.URL == "" {
			return nil, fmt.Errorf("url is required for streamable-http transport")
		}
		return NewStreamableHTTPTransport(server), nil

	case api.TransportSSE:
		if server.URL == "" {
			return nil, fmt.Errorf("url is required for sse transport")
		}
		return NewSSETransport(server), nil

	default:
		return nil, fmt.Errorf("unsupported transport: %q (supported: %s, %s, %s)",
			server.Transport, api.TransportStdio, api.TransportStreamableHTTP, api.TransportSSE)
	}
}

// elapsedSince rounds the time since start for log lines.
func elapsedSince(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
