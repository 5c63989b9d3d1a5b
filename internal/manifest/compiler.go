package manifest

import (
	"fmt"
	"strings"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/template"
)

const headerTemplate = `# {{ .Server }}

Operations: {{ .Count }}`

const entryTemplate = `## {{ .Name }}
{{- with trim .Description }}

{{ . }}
{{- end }}

{{ if .Parameters }}Parameters:
{{- range .Parameters }}
- {{ .Name }} ({{ if .Required }}required{{ else }}optional{{ end }}, {{ default "any" .Type }})
{{- with .Description | trim | replace "\n" " " }}: {{ . }}{{ end }}
{{- end }}
{{- else }}Parameters: no parameters required.{{ end }}`

var engine = template.New()

// Entry is the manifest block of a single operation.
type Entry struct {
	Server    string
	Position  int
	Operation string
	Body      string
}

// Compile renders the manifest of one server. Operations appear in the
// order given.
func Compile(serverName string, ops []api.Operation) string {
	blocks := make([]string, 0, len(ops)+1)
	blocks = append(blocks, mustRender(headerTemplate, struct {
		Server string
		Count  int
	}{serverName, len(ops)}))

	for _, e := range Entries(serverName, ops) {
		blocks = append(blocks, e.Body)
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// Entries renders one block per operation, in the order given.
func Entries(serverName string, ops []api.Operation) []Entry {
	entries := make([]Entry, 0, len(ops))
	for i, op := range ops {
		entries = append(entries, Entry{
			Server:    serverName,
			Position:  i,
			Operation: op.Name,
			Body:      mustRender(entryTemplate, op),
		})
	}
	return entries
}

// mustRender executes one of the fixed templates above. They only reference
// fields of the types they are given, so a failure is a programming error.
func mustRender(text string, data any) string {
	out, err := engine.Render(text, data)
	if err != nil {
		panic(fmt.Sprintf("manifest: %v", err))
	}
	return out
}
