package metatools

import (
	"github.com/giantswarm/lantern/internal/invoker"
	"github.com/giantswarm/lantern/internal/manifest"
	"github.com/giantswarm/lantern/internal/resolver"
	"github.com/giantswarm/lantern/internal/session"
)

// Directory is the part of the registry the meta-tools read.
type Directory interface {
	Get(name string) (*session.Session, error)
	Sessions() []*session.Session
}

// Provider implements the meta-tools over a registry, a manifest store and
// an invoker. It holds no state of its own and is safe for concurrent use.
type Provider struct {
	directory  Directory
	resolver   *resolver.Resolver
	invoker    *invoker.Invoker
	store      manifest.Store
	formatters *Formatters
}

// NewProvider creates a meta-tools provider.
//
// Args:
//   - directory: the registry whose servers are disclosed
//   - store: where read_manifest reads compiled manifests from
//   - inv: the invoker used by call_operation
//
// Returns a provider ready to be registered on an MCP server.
func NewProvider(directory Directory, store manifest.Store, inv *invoker.Invoker) *Provider {
	return &Provider{
		directory:  directory,
		resolver:   resolver.New(directory),
		invoker:    inv,
		store:      store,
		formatters: NewFormatters(),
	}
}

// GetTools returns metadata for all meta-tools this provider offers.
func (p *Provider) GetTools() []ToolMetadata {
	return []ToolMetadata{
		{
			Name:        ToolListServers,
			Description: "List the configured capability servers with their state and number of operations",
		},
		{
			Name:        ToolReadManifest,
			Description: "Read the manifest of a server: every operation with its description and parameters, as compact text",
			Args: []ArgMetadata{
				{Name: "server", Type: "string", Required: true, Description: "Name of the server"},
			},
		},
		{
			Name:        ToolDescribeOperation,
			Description: "Get the full parameter schema of one operation",
			Args: []ArgMetadata{
				{Name: "server", Type: "string", Required: true, Description: "Name of the server"},
				{Name: "operation", Type: "string", Required: true, Description: "Exact name of the operation"},
			},
		},
		{
			Name:        ToolCallOperation,
			Description: "Invoke an operation with validated arguments",
			Args: []ArgMetadata{
				{Name: "server", Type: "string", Required: true, Description: "Name of the server"},
				{Name: "operation", Type: "string", Required: true, Description: "Exact name of the operation"},
				{Name: "arguments", Type: "object", Description: "Arguments to pass to the operation (as JSON object)"},
			},
		},
		{
			Name:        ToolConnectServer,
			Description: "Connect a server that is disconnected or failed and publish its manifest",
			Args: []ArgMetadata{
				{Name: "server", Type: "string", Required: true, Description: "Name of the server"},
			},
		},
	}
}
