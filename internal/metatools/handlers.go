package metatools

import (
	"context"
	"errors"
	"fmt"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/manifest"
	"github.com/giantswarm/lantern/internal/session"
	"github.com/giantswarm/lantern/pkg/logging"
	pkgstrings "github.com/giantswarm/lantern/pkg/strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ExecuteTool runs the named meta-tool. Failures the agent can act on are
// returned as error results; the error return is reserved for unknown tools.
func (p *Provider) ExecuteTool(ctx context.Context, toolName string, args map[string]any) (*mcp.CallToolResult, error) {
	logging.Debug("MetaTools", "Executing tool %s with args: %v", toolName, args)

	switch toolName {
	case ToolListServers:
		return p.handleListServers(ctx)
	case ToolReadManifest:
		return p.handleReadManifest(ctx, args)
	case ToolDescribeOperation:
		return p.handleDescribeOperation(args)
	case ToolCallOperation:
		return p.handleCallOperation(ctx, args)
	case ToolConnectServer:
		return p.handleConnectServer(ctx, args)
	default:
		return nil, fmt.Errorf("unknown meta-tool: %s", toolName)
	}
}

func (p *Provider) handleListServers(ctx context.Context) (*mcp.CallToolResult, error) {
	sessions := p.directory.Sessions()
	names := make([]string, 0, len(sessions))
	for _, s := range sessions {
		names = append(names, s.Name())
	}
	withManifest, err := manifest.Published(ctx, p.store, names)
	if err != nil {
		logging.Warn("MetaTools", "Failed to list manifests: %v", err)
	}

	servers := make([]ServerInfo, 0, len(sessions))
	for _, s := range sessions {
		snap := s.Snapshot()
		desc := s.Server()
		info := ServerInfo{
			Name:        s.Name(),
			Description: pkgstrings.TruncateDescription(desc.Description, pkgstrings.DescriptionMaxLen),
			Transport:   string(desc.Transport),
			State:       snap.State.String(),
			Operations:  len(snap.Operations),
			Manifest:    withManifest[s.Name()],
		}
		if snap.Err != nil {
			info.Error = snap.Err.Error()
		}
		servers = append(servers, info)
	}

	out, err := p.formatters.FormatServersJSON(servers)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(out), nil
}

func (p *Provider) handleReadManifest(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	server, errResult := requireString(args, "server")
	if errResult != nil {
		return errResult, nil
	}

	s, err := p.directory.Get(server)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	// A manifest left behind by a session that has since failed is not served.
	snap := s.Snapshot()
	if snap.State != api.StateReady {
		return noManifest(server, snap), nil
	}

	text, err := p.store.Read(ctx, server)
	if err != nil {
		if errors.Is(err, manifest.ErrManifestNotFound) {
			return noManifest(server, snap), nil
		}
		return errorResult(fmt.Sprintf("Failed to read manifest: %v", err)), nil
	}
	return textResult(text), nil
}

func noManifest(server string, snap *session.Snapshot) *mcp.CallToolResult {
	if snap.Err != nil {
		return errorResult(fmt.Sprintf("No manifest for server %s: %v", server, snap.Err))
	}
	return errorResult(fmt.Sprintf("No manifest for server %s (state %s)", server, snap.State))
}

// handleConnectServer retries the connection of one server on request. There
// are no automatic retries; this is how an agent asks for one.
func (p *Provider) handleConnectServer(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	server, errResult := requireString(args, "server")
	if errResult != nil {
		return errResult, nil
	}

	s, err := p.directory.Get(server)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	if err := s.Connect(ctx); err != nil {
		manifest.Publish(ctx, p.directory, p.store)
		return errorResult(fmt.Sprintf("Failed to connect server %s: %v", server, err)), nil
	}

	for _, res := range manifest.Publish(ctx, p.directory, p.store) {
		if res.Server != server {
			continue
		}
		if res.Err != nil {
			return errorResult(fmt.Sprintf("Server %s connected but its manifest was not published: %v", server, res.Err)), nil
		}
		return textResult(fmt.Sprintf("Server %s is Ready with %d operations; its manifest is published", server, res.Operations)), nil
	}
	return textResult(fmt.Sprintf("Server %s is Ready", server)), nil
}

func (p *Provider) handleDescribeOperation(args map[string]any) (*mcp.CallToolResult, error) {
	server, errResult := requireString(args, "server")
	if errResult != nil {
		return errResult, nil
	}
	operation, errResult := requireString(args, "operation")
	if errResult != nil {
		return errResult, nil
	}

	h, err := p.resolver.Resolve(server, operation)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	out, err := p.formatters.FormatOperationJSON(h.Operation())
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(out), nil
}

func (p *Provider) handleCallOperation(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	server, errResult := requireString(args, "server")
	if errResult != nil {
		return errResult, nil
	}
	operation, errResult := requireString(args, "operation")
	if errResult != nil {
		return errResult, nil
	}

	req := api.InvocationRequest{Server: server, Operation: operation}
	if raw, ok := args["arguments"]; ok && raw != nil {
		callArgs, ok := raw.(map[string]any)
		if !ok {
			return errorResult("arguments must be an object"), nil
		}
		req.Arguments = callArgs
	}

	result, err := p.invoker.InvokeRequest(ctx, p.resolver, req)

	out, fmtErr := p.formatters.FormatResultJSON(req, result, err)
	if fmtErr != nil {
		return errorResult(fmtErr.Error()), nil
	}
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(out)},
			IsError: true,
		}, nil
	}
	return textResult(out), nil
}

func requireString(args map[string]any, name string) (string, *mcp.CallToolResult) {
	v, ok := args[name].(string)
	if !ok || v == "" {
		return "", errorResult(fmt.Sprintf("%s argument is required", name))
	}
	return v, nil
}

func textResult(text string) *mcp.CallToolResult {
	return mcp.NewToolResultText(text)
}

func errorResult(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultError(msg)
}
