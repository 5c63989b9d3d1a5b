package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/config"
	"github.com/giantswarm/lantern/internal/manifest"
	"github.com/giantswarm/lantern/internal/testing/mock"
	"github.com/giantswarm/lantern/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFactory hands out the stub registered for each server name.
func stubFactory(stubs map[string]*mock.StubTransport) transport.Factory {
	return func(server api.CapabilityServer) (transport.Transport, error) {
		s, ok := stubs[server.Name]
		if !ok {
			return nil, api.NewServerNotFoundError(server.Name)
		}
		return s, nil
	}
}

func writeServer(t *testing.T, dir, name, body string) {
	t.Helper()
	serversDir := filepath.Join(dir, config.ServersDirName)
	require.NoError(t, os.MkdirAll(serversDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(serversDir, name+".yaml"), []byte(body), 0o644))
}

func newTestApp(t *testing.T, dir string, stubs map[string]*mock.StubTransport) *Application {
	t.Helper()
	cfg := NewConfig(false, false, dir)
	a, err := NewApplication(context.Background(), cfg,
		WithTransportFactory(stubFactory(stubs)),
		WithLogOutput(&bytes.Buffer{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestNewApplication(t *testing.T) {
	dir := t.TempDir()
	writeServer(t, dir, "fs", "transport: stdio\ncommand: fs-server\n")
	writeServer(t, dir, "github", "transport: streamable-http\nurl: https://example.com/mcp\n")

	a := newTestApp(t, dir, nil)

	assert.Equal(t, []string{"fs", "github"}, a.Registry().ListServerNames())
	assert.Equal(t, dir, a.ConfigPath())
	assert.Equal(t, filepath.Join(dir, config.DefaultManifestDir), a.LanternConfig().ManifestDir)
	assert.NotNil(t, a.Resolver())
	assert.NotNil(t, a.Invoker())
	assert.NotNil(t, a.Store())
}

func TestNewApplicationInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeServer(t, dir, "broken", "transport: carrier-pigeon\n")

	_, err := NewApplication(context.Background(), NewConfig(false, false, dir), WithLogOutput(&bytes.Buffer{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestConnectAndPublish(t *testing.T) {
	dir := t.TempDir()
	writeServer(t, dir, "fs", "transport: stdio\ncommand: fs-server\n")
	writeServer(t, dir, "down", "transport: stdio\ncommand: down-server\n")

	fs := mock.NewStubTransport("fs",
		mock.Op("fs", "read_file", "Read a file", api.Parameter{Name: "path", Type: "string", Required: true}),
	)
	down := mock.NewStubTransport("down")
	down.OpenErr = assert.AnError

	a := newTestApp(t, dir, map[string]*mock.StubTransport{"fs": fs, "down": down})
	ctx := context.Background()

	results := a.Connect(ctx)
	require.Len(t, results, 2)
	assert.NoError(t, results["fs"])
	assert.Error(t, results["down"])

	published := a.Publish(ctx)
	require.Len(t, published, 2)

	body, err := a.Store().Read(ctx, "fs")
	require.NoError(t, err)
	assert.Contains(t, body, "## read_file")

	_, err = a.Store().Read(ctx, "down")
	assert.Error(t, err)
}

func TestDestructiveOperationsHidden(t *testing.T) {
	tests := []struct {
		name    string
		yolo    bool
		visible []string
	}{
		{name: "denied by default", visible: []string{"list_issues"}},
		{name: "yolo shows everything", yolo: true, visible: []string{"delete_issue", "list_issues"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
				[]byte("denyDestructive: true\ndestructiveOperations: [delete_issue]\n"), 0o644))
			writeServer(t, dir, "gh", "transport: stdio\ncommand: gh-server\n")

			stub := mock.NewStubTransport("gh",
				mock.Op("gh", "delete_issue", "Delete an issue"),
				mock.Op("gh", "list_issues", "List issues"),
			)

			cfg := NewConfig(false, tt.yolo, dir)
			a, err := NewApplication(context.Background(), cfg,
				WithTransportFactory(stubFactory(map[string]*mock.StubTransport{"gh": stub})),
				WithLogOutput(&bytes.Buffer{}),
			)
			require.NoError(t, err)
			defer func() { _ = a.Close(context.Background()) }()

			a.Connect(context.Background())
			s, err := a.Registry().Get("gh")
			require.NoError(t, err)

			var names []string
			for _, op := range s.Snapshot().Operations {
				names = append(names, op.Name)
			}
			assert.ElementsMatch(t, tt.visible, names)
		})
	}
}

func TestDiffServers(t *testing.T) {
	fs := api.CapabilityServer{Name: "fs", Transport: api.TransportStdio, Command: "fs"}
	gh := api.CapabilityServer{Name: "gh", Transport: api.TransportStdio, Command: "gh"}
	ghChanged := gh
	ghChanged.Command = "gh2"
	db := api.CapabilityServer{Name: "db", Transport: api.TransportStdio, Command: "db"}

	tests := []struct {
		name    string
		current []api.CapabilityServer
		next    []api.CapabilityServer
		want    ConfigDiff
	}{
		{name: "unchanged", current: []api.CapabilityServer{fs, gh}, next: []api.CapabilityServer{fs, gh}},
		{name: "added", current: []api.CapabilityServer{fs}, next: []api.CapabilityServer{fs, db}, want: ConfigDiff{Added: []string{"db"}}},
		{name: "removed", current: []api.CapabilityServer{fs, gh}, next: []api.CapabilityServer{fs}, want: ConfigDiff{Removed: []string{"gh"}}},
		{name: "changed", current: []api.CapabilityServer{fs, gh}, next: []api.CapabilityServer{fs, ghChanged}, want: ConfigDiff{Changed: []string{"gh"}}},
		{
			name:    "mixed",
			current: []api.CapabilityServer{fs, gh},
			next:    []api.CapabilityServer{ghChanged, db},
			want:    ConfigDiff{Added: []string{"db"}, Removed: []string{"fs"}, Changed: []string{"gh"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := diffServers(tt.current, tt.next)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Empty(), got.Empty())
		})
	}
}

func TestApplyConfigAndRefresh(t *testing.T) {
	dir := t.TempDir()
	writeServer(t, dir, "fs", "transport: stdio\ncommand: fs-server\n")
	writeServer(t, dir, "old", "transport: stdio\ncommand: old-server\n")

	stubs := map[string]*mock.StubTransport{
		"fs":  mock.NewStubTransport("fs", mock.Op("fs", "read_file", "Read a file")),
		"old": mock.NewStubTransport("old", mock.Op("old", "ping", "Ping")),
		"new": mock.NewStubTransport("new", mock.Op("new", "echo", "Echo")),
	}
	a := newTestApp(t, dir, stubs)
	ctx := context.Background()

	a.Refresh(ctx)
	_, err := a.Store().Read(ctx, "old")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, config.ServersDirName, "old.yaml")))
	writeServer(t, dir, "new", "transport: stdio\ncommand: new-server\n")
	next, err := config.LoadConfig(dir)
	require.NoError(t, err)

	diff, err := a.ApplyConfig(next)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, diff.Added)
	assert.Equal(t, []string{"old"}, diff.Removed)
	assert.Empty(t, diff.Changed)
	assert.Equal(t, int32(1), stubs["old"].CloseCalls.Load())

	a.Refresh(ctx)

	assert.Equal(t, []string{"fs", "new"}, a.Registry().ListServerNames())
	body, err := a.Store().Read(ctx, "new")
	require.NoError(t, err)
	assert.Contains(t, body, "## echo")

	_, err = a.Store().Read(ctx, "old")
	assert.Error(t, err, "manifest of a removed server is pruned")

	// The already Ready server is not reconnected.
	assert.Equal(t, int32(1), stubs["fs"].OpenCalls.Load())
}

func TestMaintainWithdrawsManifestOfFailedSession(t *testing.T) {
	dir := t.TempDir()
	writeServer(t, dir, "fs", "transport: stdio\ncommand: fs-server\ntimeout: 50ms\n")

	fs := mock.NewStubTransport("fs", mock.Op("fs", "read_file", "Read a file"))
	fs.StallInvoke = true
	a := newTestApp(t, dir, map[string]*mock.StubTransport{"fs": fs})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.Refresh(ctx)
	_, err := a.Store().Read(ctx, "fs")
	require.NoError(t, err)

	go a.maintain(ctx, nil)

	s, err := a.Registry().Get("fs")
	require.NoError(t, err)
	_, err = s.Invoke(ctx, "read_file", nil)
	require.True(t, api.IsTimeout(err))
	require.Equal(t, api.StateFailed, s.State())

	assert.Eventually(t, func() bool {
		_, err := a.Store().Read(ctx, "fs")
		return errors.Is(err, manifest.ErrManifestNotFound)
	}, 2*time.Second, 10*time.Millisecond, "manifest of a failed server is withdrawn")

	// No automatic retry.
	assert.Equal(t, int32(1), fs.OpenCalls.Load())
}

func TestServeRejectsUnknownTransport(t *testing.T) {
	a := newTestApp(t, t.TempDir(), nil)
	err := a.Serve(context.Background(), ServeOptions{Transport: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported serve transport")
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", (&Config{Debug: true, Quiet: true}).logLevel().String())
	assert.Equal(t, "WARN", (&Config{Quiet: true}).logLevel().String())
	assert.Equal(t, "INFO", (&Config{}).logLevel().String())
}
