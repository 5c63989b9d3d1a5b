package manifest

import (
	"strings"
	"testing"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/testing/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fsOperations() []api.Operation {
	return []api.Operation{
		mock.Op("fs", "read_file", "Read a file",
			api.Parameter{Name: "encoding", Type: "string"},
			api.Parameter{Name: "path", Type: "string", Required: true, Description: "Path to read"},
		),
		mock.Op("fs", "list_roots", ""),
	}
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name string
		ops  []api.Operation
		want string
	}{
		{
			name: "parameters and bare operation",
			ops:  fsOperations(),
			want: `# fs

Operations: 2

## read_file

Read a file

Parameters:
- encoding (optional, string)
- path (required, string): Path to read

## list_roots

Parameters: no parameters required.
`,
		},
		{
			name: "no operations",
			ops:  nil,
			want: "# fs\n\nOperations: 0\n",
		},
		{
			name: "descriptions are trimmed and parameter descriptions kept on one line",
			ops: []api.Operation{
				mock.Op("fs", "search", "  Search files.\n\nSupports globs.\n",
					api.Parameter{Name: "pattern", Required: true, Description: "glob\npattern"},
				),
			},
			want: `# fs

Operations: 1

## search

Search files.

Supports globs.

Parameters:
- pattern (required, any): glob pattern
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compile("fs", tt.ops))
		})
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	ops := fsOperations()
	first := Compile("fs", ops)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Compile("fs", ops))
	}
}

func TestCompileKeepsServerOrder(t *testing.T) {
	ops := []api.Operation{
		mock.Op("fs", "zeta", ""),
		mock.Op("fs", "alpha", ""),
		mock.Op("fs", "mid", ""),
	}
	text := Compile("fs", ops)

	zeta := strings.Index(text, "## zeta")
	alpha := strings.Index(text, "## alpha")
	mid := strings.Index(text, "## mid")
	assert.True(t, zeta < alpha && alpha < mid, "operations must not be reordered:\n%s", text)
}

func TestEntries(t *testing.T) {
	entries := Entries("fs", fsOperations())
	require.Len(t, entries, 2)

	assert.Equal(t, Entry{
		Server:    "fs",
		Position:  1,
		Operation: "list_roots",
		Body:      "## list_roots\n\nParameters: no parameters required.",
	}, entries[1])
	assert.Equal(t, 0, entries[0].Position)
	assert.True(t, strings.HasPrefix(entries[0].Body, "## read_file\n"))
}
