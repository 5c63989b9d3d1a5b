package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/giantswarm/lantern/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, StoreFile, cfg.Store)
	assert.Equal(t, api.DefaultTimeout, cfg.DefaultTimeout)
	assert.Equal(t, filepath.Join(dir, DefaultManifestDir), cfg.ManifestDir)
	assert.Equal(t, filepath.Join(dir, DefaultSQLitePath), cfg.SQLitePath)
	assert.Equal(t, DefaultServiceName, cfg.Telemetry.ServiceName)
	assert.Empty(t, cfg.Servers)
	assert.Equal(t, dir, cfg.ConfigDir())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LANTERN_TEST_TOKEN", "secret")

	writeFile(t, filepath.Join(dir, "config.yaml"), `
manifestDir: /var/lib/lantern
store: sqlite
defaultTimeout: 10s
denyDestructive: true
servers:
  - name: filesystem
    transport: stdio
    command: fs-server
    args: ["/tmp"]
    env:
      TOKEN: "${LANTERN_TEST_TOKEN}"
    cache:
      cacheOperationsList: true
    timeout: 20s
    filter:
      allow: [read_file]
`)
	writeFile(t, filepath.Join(dir, "servers", "github.yaml"), `
transport: streamable-http
url: http://localhost:8080/mcp
headers:
  Authorization: "Bearer ${LANTERN_TEST_TOKEN}"
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/lantern", cfg.ManifestDir)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.True(t, cfg.DenyDestructive)
	require.Len(t, cfg.Servers, 2)

	fs := cfg.Servers[0]
	assert.Equal(t, "filesystem", fs.Name)
	assert.Equal(t, api.TransportStdio, fs.Transport)
	assert.Equal(t, "secret", fs.Env["TOKEN"])
	assert.True(t, fs.Cache.CacheOperationsList)
	assert.Equal(t, 20*time.Second, fs.Timeout)
	assert.Equal(t, []string{"read_file"}, fs.Filter.Allow)

	gh, ok := cfg.Server("github")
	require.True(t, ok, "server name defaults to the file name")
	assert.Equal(t, "Bearer secret", gh.Headers["Authorization"])
	assert.Equal(t, 10*time.Second, gh.Timeout, "default timeout applies")
}

func TestLoadConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), "servers: [")

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadServerDefinitionsCollectsErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "transport: [")
	writeFile(t, filepath.Join(dir, "b.yml"), "transport: [")

	_, err := LoadServerDefinitions(dir)
	require.Error(t, err)

	var coll ConfigurationErrorCollection
	require.ErrorAs(t, err, &coll)
	assert.Len(t, coll.Errors, 2)
	assert.Equal(t, "parse", coll.Errors[0].ErrorType)
}

func TestLoadServerDefinitionsMissingDir(t *testing.T) {
	servers, err := LoadServerDefinitions(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, servers)
}

func TestValidateServer(t *testing.T) {
	tests := []struct {
		name    string
		server  api.CapabilityServer
		wantErr string
	}{
		{
			name:   "valid stdio",
			server: api.CapabilityServer{Name: "fs", Transport: api.TransportStdio, Command: "fs"},
		},
		{
			name:   "valid sse",
			server: api.CapabilityServer{Name: "gh", Transport: api.TransportSSE, URL: "http://x/sse"},
		},
		{
			name:    "missing name",
			server:  api.CapabilityServer{Transport: api.TransportStdio, Command: "fs"},
			wantErr: "field 'name'",
		},
		{
			name:    "unknown transport",
			server:  api.CapabilityServer{Name: "x", Transport: "grpc"},
			wantErr: "must be one of",
		},
		{
			name:    "stdio without command",
			server:  api.CapabilityServer{Name: "fs", Transport: api.TransportStdio},
			wantErr: "command",
		},
		{
			name:    "remote without url",
			server:  api.CapabilityServer{Name: "gh", Transport: api.TransportStreamableHTTP},
			wantErr: "url",
		},
		{
			name: "allow and block",
			server: api.CapabilityServer{
				Name: "fs", Transport: api.TransportStdio, Command: "fs",
				Filter: api.ToolFilter{Allow: []string{"a"}, Block: []string{"b"}},
			},
			wantErr: "mutually exclusive",
		},
		{
			name:    "negative timeout",
			server:  api.CapabilityServer{Name: "fs", Transport: api.TransportStdio, Command: "fs", Timeout: -time.Second},
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServer(tt.server)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateDuplicates(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Servers = []api.CapabilityServer{
		{Name: "fs", Transport: api.TransportStdio, Command: "a"},
		{Name: "fs", Transport: api.TransportStdio, Command: "b"},
	}

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate server name")
}

func TestValidateStore(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Store = "s3"
	assert.Error(t, Validate(cfg))
}

func TestStorage(t *testing.T) {
	dir := t.TempDir()
	storage := NewStorageWithPath(dir)

	server := api.CapabilityServer{
		Name:      "fs",
		Transport: api.TransportStdio,
		Command:   "fs-server",
		Timeout:   5 * time.Second,
	}
	require.NoError(t, storage.SaveServer(server))

	servers, err := storage.ListServers()
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, server.Name, servers[0].Name)
	assert.Equal(t, 5*time.Second, servers[0].Timeout)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	_, ok := cfg.Server("fs")
	assert.True(t, ok, "saved servers are picked up by LoadConfig")

	require.NoError(t, storage.DeleteServer("fs"))
	err = storage.DeleteServer("fs")
	assert.True(t, api.IsNotFound(err))

	assert.Error(t, storage.SaveServer(api.CapabilityServer{Name: "bad"}))
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"fs":          "fs",
		"my server":   "my_server",
		"a/b:c":       "a_b_c",
		"  ":          "unnamed",
		"__x__":       "x",
		"weird..name": "weird_name",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, sanitizeFilename(in))
		})
	}
}
