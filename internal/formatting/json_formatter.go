package formatting

import (
	"fmt"

	"github.com/giantswarm/lantern/internal/api"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{options: options}
}

// FormatServers implements Formatter.
func (f *JSONFormatter) FormatServers(servers []ServerStatus) error {
	if servers == nil {
		servers = []ServerStatus{}
	}
	return f.FormatData(map[string]any{"servers": servers, "count": len(servers)})
}

// FormatOperation implements Formatter.
func (f *JSONFormatter) FormatOperation(op api.Operation) error {
	if op.Parameters == nil {
		op.Parameters = []api.Parameter{}
	}
	return f.FormatData(op)
}

// FormatResult implements Formatter.
func (f *JSONFormatter) FormatResult(result *api.InvocationResult) error {
	return f.FormatData(resultView(result))
}

// FormatData implements Formatter.
func (f *JSONFormatter) FormatData(data any) error {
	_, err := fmt.Fprintln(f.options.writer(), PrettyJSON(data))
	return err
}

// resultView adds the error message, which InvocationResult does not marshal.
func resultView(result *api.InvocationResult) map[string]any {
	view := map[string]any{
		"id":         result.ID,
		"server":     result.Server,
		"operation":  result.Operation,
		"success":    result.Success,
		"durationMs": result.Duration.Milliseconds(),
	}
	if result.Content != "" {
		view["content"] = result.Content
	}
	if len(result.Blocks) > 0 {
		view["blocks"] = result.Blocks
	}
	if result.Structured != nil {
		view["structured"] = result.Structured
	}
	if msg := result.ErrorMessage(); msg != "" {
		view["error"] = msg
	}
	return view
}
