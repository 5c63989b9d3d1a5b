package manifest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/registry"
	"github.com/giantswarm/lantern/internal/testing/mock"
	"github.com/giantswarm/lantern/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stdio(name string, filter api.ToolFilter) api.CapabilityServer {
	return api.CapabilityServer{
		Name:      name,
		Transport: api.TransportStdio,
		Command:   name,
		Timeout:   time.Second,
		Filter:    filter,
	}
}

func connectedRegistry(t *testing.T, servers []api.CapabilityServer, stubs map[string]*mock.StubTransport) *registry.Registry {
	t.Helper()
	reg, err := registry.New(servers, registry.WithTransportFactory(
		func(s api.CapabilityServer) (transport.Transport, error) { return stubs[s.Name], nil },
	))
	require.NoError(t, err)
	reg.ConnectAll(context.Background())
	return reg
}

func TestPublishAllowListScenario(t *testing.T) {
	stub := mock.NewStubTransport("fs",
		mock.Op("fs", "list_files", "List files"),
		mock.Op("fs", "read_file", "Read a file"),
	)
	reg := connectedRegistry(t,
		[]api.CapabilityServer{stdio("fs", api.ToolFilter{Allow: []string{"read_file"}})},
		map[string]*mock.StubTransport{"fs": stub},
	)
	store := NewFileStore(t.TempDir())

	results := Publish(context.Background(), reg, store)
	require.Len(t, results, 1)
	assert.True(t, results[0].Published)
	assert.Equal(t, 1, results[0].Operations)

	text, err := store.Read(context.Background(), "fs")
	require.NoError(t, err)
	assert.Contains(t, text, "Operations: 1\n")
	assert.Contains(t, text, "## read_file\n")
	assert.NotContains(t, text, "list_files")
}

func TestPublishBlockListNeverEmitsHiddenOperations(t *testing.T) {
	stub := mock.NewStubTransport("fs",
		mock.Op("fs", "read_file", "Read a file"),
		mock.Op("fs", "delete_file", "Delete a file, including delete_file backups"),
	)
	reg := connectedRegistry(t,
		[]api.CapabilityServer{stdio("fs", api.ToolFilter{Block: []string{"delete_file"}})},
		map[string]*mock.StubTransport{"fs": stub},
	)
	store := NewFileStore(t.TempDir())

	Publish(context.Background(), reg, store)

	text, err := store.Read(context.Background(), "fs")
	require.NoError(t, err)
	assert.NotContains(t, text, "delete_file")
}

func TestPublishDistinguishesFailedFromEmpty(t *testing.T) {
	empty := mock.NewStubTransport("empty")
	broken := mock.NewStubTransport("broken")
	broken.OpenErr = errors.New("connection refused")

	reg := connectedRegistry(t,
		[]api.CapabilityServer{stdio("empty", api.ToolFilter{}), stdio("broken", api.ToolFilter{})},
		map[string]*mock.StubTransport{"empty": empty, "broken": broken},
	)
	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	// A manifest left over from an earlier successful run.
	require.NoError(t, store.Write(ctx, "broken", []api.Operation{mock.Op("broken", "old", "")}))

	results := Publish(ctx, reg, store)
	require.Len(t, results, 2)

	assert.Equal(t, "empty", results[0].Server)
	assert.True(t, results[0].Published)
	assert.Equal(t, 0, results[0].Operations)
	assert.NoError(t, results[0].Err)

	assert.Equal(t, "broken", results[1].Server)
	assert.False(t, results[1].Published)
	assert.Equal(t, api.StateFailed, results[1].State)
	assert.True(t, api.IsConnection(results[1].Err))

	text, err := store.Read(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, "# empty\n\nOperations: 0\n", text)

	_, err = store.Read(ctx, "broken")
	assert.ErrorIs(t, err, ErrManifestNotFound)
}

func TestPublishNotConnected(t *testing.T) {
	reg, err := registry.New([]api.CapabilityServer{stdio("fs", api.ToolFilter{})})
	require.NoError(t, err)

	results := Publish(context.Background(), reg, NewFileStore(t.TempDir()))
	require.Len(t, results, 1)
	assert.Equal(t, api.StateDisconnected, results[0].State)
	assert.True(t, api.IsNotReady(results[0].Err))
}

func TestPublishPrunesUnknownServers(t *testing.T) {
	stub := mock.NewStubTransport("fs", mock.Op("fs", "read_file", ""))
	reg := connectedRegistry(t,
		[]api.CapabilityServer{stdio("fs", api.ToolFilter{})},
		map[string]*mock.StubTransport{"fs": stub},
	)
	store := NewFileStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "retired", nil))

	Publish(ctx, reg, store)

	servers, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fs"}, servers)
}

func TestPublishIsIdempotent(t *testing.T) {
	stub := mock.NewStubTransport("fs", fsOperations()...)
	reg := connectedRegistry(t,
		[]api.CapabilityServer{stdio("fs", api.ToolFilter{})},
		map[string]*mock.StubTransport{"fs": stub},
	)
	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	Publish(ctx, reg, store)
	first, err := store.Read(ctx, "fs")
	require.NoError(t, err)

	Publish(ctx, reg, store)
	second, err := store.Read(ctx, "fs")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPublished(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())
	require.NoError(t, store.Write(ctx, "fs", nil))
	require.NoError(t, store.Write(ctx, "team/github", nil))

	got, err := Published(ctx, store, []string{"fs", "team/github", "db"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"fs": true, "team/github": true, "db": false}, got)
}

func TestPublishFailedServerKeepsLookalikeManifest(t *testing.T) {
	good := mock.NewStubTransport("a_b", mock.Op("a_b", "read_file", ""))
	bad := mock.NewStubTransport("a b")
	bad.OpenErr = errors.New("connection refused")

	reg := connectedRegistry(t,
		[]api.CapabilityServer{stdio("a_b", api.ToolFilter{}), stdio("a b", api.ToolFilter{})},
		map[string]*mock.StubTransport{"a_b": good, "a b": bad},
	)
	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	results := Publish(ctx, reg, store)
	require.Len(t, results, 2)
	assert.True(t, results[0].Published)
	assert.False(t, results[1].Published)

	text, err := store.Read(ctx, "a_b")
	require.NoError(t, err)
	assert.Contains(t, text, "## read_file\n")

	_, err = store.Read(ctx, "a b")
	assert.ErrorIs(t, err, ErrManifestNotFound)

	published, err := Published(ctx, store, []string{"a_b", "a b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a_b": true, "a b": false}, published)
}
