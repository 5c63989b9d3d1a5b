// Package formatting renders lantern's CLI output.
//
// Every command result can be printed as a human readable table or text, or
// as JSON or YAML for scripts. Formatters write to the configured writer
// (stdout by default) and never to the log stream.
package formatting

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/giantswarm/lantern/internal/api"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatText OutputFormat = "text" // Tables and plain text
	FormatJSON OutputFormat = "json" // JSON output
	FormatYAML OutputFormat = "yaml" // YAML output
)

// ParseFormat validates a format name from the command line.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText, "table":
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (supported: text, json, yaml)", s)
	}
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
	Color  bool // Enable colored output
	// Writer receives the output. Defaults to os.Stdout.
	Writer io.Writer
}

func (o Options) writer() io.Writer {
	if o.Writer == nil {
		return os.Stdout
	}
	return o.Writer
}

// ServerStatus is one row of a server listing.
type ServerStatus struct {
	Name       string `json:"name"`
	Transport  string `json:"transport"`
	State      string `json:"state"`
	Operations int    `json:"operations"`
	Manifest   bool   `json:"manifest,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Formatter renders command results.
type Formatter interface {
	// FormatServers prints one row per server.
	FormatServers(servers []ServerStatus) error
	// FormatOperation prints the full schema of one operation.
	FormatOperation(op api.Operation) error
	// FormatResult prints the outcome of an invocation.
	FormatResult(result *api.InvocationResult) error
	// FormatData prints arbitrary data.
	FormatData(data any) error
}

// New creates the formatter for options.Format.
func New(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	default:
		return NewTableFormatter(options)
	}
}
