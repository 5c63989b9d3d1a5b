package formatting

import (
	"fmt"

	"github.com/giantswarm/lantern/internal/api"

	"sigs.k8s.io/yaml"
)

// YAMLFormatter provides YAML output formatting. Values are converted
// through their JSON form, so json tags name the keys.
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{options: options}
}

// FormatServers implements Formatter.
func (f *YAMLFormatter) FormatServers(servers []ServerStatus) error {
	if servers == nil {
		servers = []ServerStatus{}
	}
	return f.FormatData(map[string]any{"servers": servers, "count": len(servers)})
}

// FormatOperation implements Formatter.
func (f *YAMLFormatter) FormatOperation(op api.Operation) error {
	if op.Parameters == nil {
		op.Parameters = []api.Parameter{}
	}
	return f.FormatData(op)
}

// FormatResult implements Formatter.
func (f *YAMLFormatter) FormatResult(result *api.InvocationResult) error {
	return f.FormatData(resultView(result))
}

// FormatData implements Formatter.
func (f *YAMLFormatter) FormatData(data any) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	_, err = f.options.writer().Write(out)
	return err
}
