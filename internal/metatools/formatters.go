package metatools

import (
	"encoding/json"
	"fmt"

	"github.com/giantswarm/lantern/internal/api"
)

// Formatters renders meta-tool responses as indented JSON.
type Formatters struct{}

// NewFormatters creates a new formatters instance.
func NewFormatters() *Formatters {
	return &Formatters{}
}

// FormatServersJSON renders a list_servers response.
func (f *Formatters) FormatServersJSON(servers []ServerInfo) (string, error) {
	if servers == nil {
		servers = []ServerInfo{}
	}
	return f.marshal(ListServersResponse{Servers: servers})
}

// FormatOperationJSON renders an operation with its parameter table.
func (f *Formatters) FormatOperationJSON(op api.Operation) (string, error) {
	if op.Parameters == nil {
		op.Parameters = []api.Parameter{}
	}
	return f.marshal(op)
}

// FormatResultJSON renders the outcome of call_operation. result may be nil
// when the call failed before reaching the server.
func (f *Formatters) FormatResultJSON(req api.InvocationRequest, result *api.InvocationResult, err error) (string, error) {
	resp := CallOperationResponse{
		Server:    req.Server,
		Operation: req.Operation,
	}
	if result != nil {
		resp.ID = result.ID
		resp.Success = result.Success
		resp.Content = result.Content
		resp.Structured = result.Structured
		resp.DurationMs = result.Duration.Milliseconds()
	}
	if err != nil {
		resp.Success = false
		resp.Error = err.Error()
		resp.ErrorCode = api.Classify(err)
	}
	return f.marshal(resp)
}

func (f *Formatters) marshal(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode response: %w", err)
	}
	return string(b), nil
}
