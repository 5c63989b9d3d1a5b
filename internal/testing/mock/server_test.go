package mock

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const filesConfig = `
name: files
tools:
  - name: read_file
    description: Read a file
    input_schema:
      type: object
      properties:
        path:
          type: string
        encoding:
          type: string
          default: utf-8
      required: [path]
    responses:
      - condition:
          path: /missing
        error: "no such file: {{ .path }}"
      - response: "{{ .encoding }}:{{ .path }}"
  - name: stat
    description: Describe a file
    responses:
      - response:
          size: 42
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "files.yaml")
	require.NoError(t, os.WriteFile(path, []byte(filesConfig), 0o644))
	return path
}

func inProcessClient(t *testing.T, s *Server) *client.Client {
	t.Helper()
	c, err := client.NewInProcessClient(s.MCPServer())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: "test", Version: "0.0.0"}
	_, err = c.Initialize(ctx, req)
	require.NoError(t, err)
	return c
}

func TestNewServerFromFile(t *testing.T) {
	s, err := NewServerFromFile(writeConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "files", s.Name())

	c := inProcessClient(t, s)
	tools, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"read_file", "stat"}, names)
}

func TestServerResponses(t *testing.T) {
	s, err := NewServerFromFile(writeConfig(t))
	require.NoError(t, err)
	c := inProcessClient(t, s)

	tests := []struct {
		name      string
		tool      string
		args      map[string]any
		wantText  string
		wantError bool
	}{
		{"template with default", "read_file", map[string]any{"path": "/a.txt"}, "utf-8:/a.txt", false},
		{"explicit argument", "read_file", map[string]any{"path": "/a.txt", "encoding": "latin1"}, "latin1:/a.txt", false},
		{"conditional error", "read_file", map[string]any{"path": "/missing"}, "no such file: /missing", true},
		{"structured response", "stat", nil, `{"size":42}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.CallToolRequest{}
			req.Params.Name = tt.tool
			req.Params.Arguments = tt.args

			res, err := c.CallTool(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantError, res.IsError)
			require.NotEmpty(t, res.Content)

			text, ok := mcp.AsTextContent(res.Content[0])
			require.True(t, ok)
			assert.Equal(t, tt.wantText, text.Text)
		})
	}
}

func TestNewServerRejectsDuplicates(t *testing.T) {
	_, err := NewServer("dup", []ToolConfig{{Name: "a"}, {Name: "a"}})
	assert.Error(t, err)
}

func TestMatchesCondition(t *testing.T) {
	assert.True(t, matchesCondition(nil, map[string]any{"a": 1}))
	assert.True(t, matchesCondition(map[string]any{"n": 1}, map[string]any{"n": float64(1)}))
	assert.False(t, matchesCondition(map[string]any{"n": 1}, map[string]any{}))
}
