package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/giantswarm/lantern/internal/template"
	"github.com/giantswarm/lantern/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"
)

// Server is a mock capability server whose tools answer with configured responses.
type Server struct {
	name           string
	tools          []ToolConfig
	toolHandlers   map[string]*ToolHandler
	templateEngine *template.Engine
	mcpServer      *server.MCPServer
}

// NewServerFromFile creates a mock server from a YAML definition file. The
// server name defaults to the file name without extension.
func NewServerFromFile(configPath string) (*Server, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read mock config file %s: %w", configPath, err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse mock config file %s: %w", configPath, err)
	}

	name := cfg.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(configPath), filepath.Ext(configPath))
	}
	return NewServer(name, cfg.Tools)
}

// NewServer creates a mock server exposing tools in the given order.
func NewServer(name string, tools []ToolConfig) (*Server, error) {
	mcpServer := server.NewMCPServer(
		fmt.Sprintf("mock-%s", name),
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		name:           name,
		tools:          tools,
		toolHandlers:   make(map[string]*ToolHandler, len(tools)),
		templateEngine: template.New(),
		mcpServer:      mcpServer,
	}

	for _, cfg := range tools {
		if _, dup := s.toolHandlers[cfg.Name]; dup {
			return nil, fmt.Errorf("duplicate mock tool %q", cfg.Name)
		}
		s.toolHandlers[cfg.Name] = NewToolHandler(cfg, s.templateEngine)

		tool, err := toolFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		mcpServer.AddTool(tool, s.createToolHandler(cfg.Name))
	}

	logging.Debug("MockServer", "Mock server %s initialized with %d tools", name, len(tools))
	return s, nil
}

// Name returns the server name.
func (s *Server) Name() string { return s.name }

// MCPServer exposes the underlying protocol server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

func toolFromConfig(cfg ToolConfig) (mcp.Tool, error) {
	if len(cfg.InputSchema) == 0 {
		return mcp.NewTool(cfg.Name, mcp.WithDescription(cfg.Description)), nil
	}
	raw, err := json.Marshal(cfg.InputSchema)
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("invalid input schema for mock tool %s: %w", cfg.Name, err)
	}
	return mcp.NewToolWithRawSchema(cfg.Name, cfg.Description, raw), nil
}

// createToolHandler creates an MCP tool handler function for the given tool name
func (s *Server) createToolHandler(toolName string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		handler, exists := s.toolHandlers[toolName]
		if !exists {
			return mcp.NewToolResultError(fmt.Sprintf("tool %s not found", toolName)), nil
		}

		result, err := handler.HandleCall(ctx, request.GetArguments())
		if err != nil {
			var remote *RemoteError
			if errors.As(err, &remote) {
				return mcp.NewToolResultError(remote.Message), nil
			}
			return nil, err
		}

		switch v := result.(type) {
		case nil:
			return mcp.NewToolResultText(""), nil
		case string:
			return mcp.NewToolResultText(v), nil
		case map[string]any, []any:
			jsonBytes, err := json.Marshal(v)
			if err != nil {
				return mcp.NewToolResultText(fmt.Sprintf("%v", v)), nil
			}
			res := mcp.NewToolResultText(string(jsonBytes))
			res.StructuredContent = v
			return res, nil
		default:
			return mcp.NewToolResultText(fmt.Sprintf("%v", v)), nil
		}
	}
}

// Start serves the mock server over stdio until the input stream closes.
func (s *Server) Start(ctx context.Context) error {
	logging.Debug("MockServer", "Starting mock server %s on stdio", s.name)
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
