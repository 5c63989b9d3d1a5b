package metatools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/giantswarm/lantern/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerName is the implementation name lantern announces to MCP clients.
const ServerName = "lantern"

// Server serves the meta-tools of a Provider over MCP.
type Server struct {
	provider  *Provider
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server with every meta-tool registered.
func NewServer(provider *Provider, version string) *Server {
	s := &Server{
		provider: provider,
		mcpServer: server.NewMCPServer(ServerName, version,
			server.WithToolCapabilities(false),
			server.WithInstructions("Use list_servers and read_manifest to find an operation, "+
				"describe_operation to see its parameters and call_operation to run it."),
		),
	}
	for _, meta := range provider.GetTools() {
		s.mcpServer.AddTool(toMCPTool(meta), s.handler(meta.Name))
	}
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio serves MCP over in and out until ctx ends or in is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	logging.Info("MetaTools", "Serving meta-tools over stdio")
	return server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
}

// ServeHTTP serves MCP over streamable HTTP on addr until ctx ends.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler:           server.NewStreamableHTTPServer(s.mcpServer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()
	logging.Info("MetaTools", "Serving meta-tools over streamable-http on %s", listener.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			_ = httpServer.Close()
		}
		return nil
	}
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.provider.ExecuteTool(ctx, name, request.GetArguments())
	}
}

// toMCPTool converts tool metadata into an mcp-go tool definition.
func toMCPTool(meta ToolMetadata) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(meta.Description)}
	for _, arg := range meta.Args {
		propOpts := []mcp.PropertyOption{mcp.Description(arg.Description)}
		if arg.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		switch arg.Type {
		case "object":
			opts = append(opts, mcp.WithObject(arg.Name, propOpts...))
		case "boolean":
			opts = append(opts, mcp.WithBoolean(arg.Name, propOpts...))
		case "number":
			opts = append(opts, mcp.WithNumber(arg.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(arg.Name, propOpts...))
		}
	}
	return mcp.NewTool(meta.Name, opts...)
}
