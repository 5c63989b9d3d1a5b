package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/config"
	"github.com/giantswarm/lantern/internal/testing/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sqliteStore, err := NewSQLiteStore(filepath.Join(dir, "index", "manifests.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]Store{
		"file":   NewFileStore(filepath.Join(dir, "knowledge", "servers")),
		"sqlite": sqliteStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Write(ctx, "fs", fsOperations()))
			require.NoError(t, store.Write(ctx, "git", []api.Operation{mock.Op("git", "status", "Show status")}))

			text, err := store.Read(ctx, "fs")
			require.NoError(t, err)
			assert.Equal(t, Compile("fs", fsOperations()), text)

			servers, err := store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"fs", "git"}, servers)
		})
	}
}

func TestStoreWriteOverwrites(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Write(ctx, "fs", fsOperations()))
			require.NoError(t, store.Write(ctx, "fs", []api.Operation{mock.Op("fs", "stat", "")}))

			text, err := store.Read(ctx, "fs")
			require.NoError(t, err)
			assert.Equal(t, Compile("fs", []api.Operation{mock.Op("fs", "stat", "")}), text)
			assert.NotContains(t, text, "read_file")
		})
	}
}

func TestStoreRemove(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Write(ctx, "fs", fsOperations()))
			require.NoError(t, store.Remove(ctx, "fs"))
			require.NoError(t, store.Remove(ctx, "fs"), "removing twice is not an error")

			_, err := store.Read(ctx, "fs")
			assert.True(t, errors.Is(err, ErrManifestNotFound))

			servers, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, servers)
		})
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			assert.ErrorIs(t, store.Write(ctx, "fs", nil), context.Canceled)
		})
	}
}

func TestFileStoreLeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	require.NoError(t, store.Write(context.Background(), "fs", fsOperations()))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "fs.md", files[0].Name())
}

func TestFileStoreFileNames(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"fs", "fs.md"},
		{"team/fs", "team%2Ffs.md"},
		{"a b", "a+b.md"},
		{"a_b", "a_b.md"},
		{"a+b", "a%2Bb.md"},
		{".hidden", "%2Ehidden.md"},
		{`c:\tools`, "c%3A%5Ctools.md"},
	}

	store := NewFileStore(t.TempDir())
	for _, tt := range tests {
		t.Run(tt.server, func(t *testing.T) {
			assert.Equal(t, filepath.Join(store.Dir(), tt.want), store.Path(tt.server))
		})
	}
}

func TestFileStoreDistinctNamesDoNotCollide(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())

	names := []string{"a_b", "a b", "a/b", "a+b", ".a", "%2Ea"}
	for _, name := range names {
		require.NoError(t, store.Write(ctx, name, nil))
	}

	listed, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, names, listed)

	require.NoError(t, store.Remove(ctx, "a b"))
	text, err := store.Read(ctx, "a_b")
	require.NoError(t, err)
	assert.Contains(t, text, "a_b")

	_, err = store.Read(ctx, "a b")
	assert.ErrorIs(t, err, ErrManifestNotFound)
}

func TestFileStoreListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad%zz.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	listed, err := NewFileStore(dir).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestSQLiteStoreEntries(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "manifests.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "fs", fsOperations()))

	entries, err := store.Entries(ctx, "fs")
	require.NoError(t, err)
	assert.Equal(t, Entries("fs", fsOperations()), entries)

	require.NoError(t, store.Write(ctx, "fs", nil))
	entries, err = store.Entries(ctx, "fs")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()

	fileStore, err := NewStore(config.LanternConfig{Store: config.StoreFile, ManifestDir: dir})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, fileStore)

	sqliteStore, err := NewStore(config.LanternConfig{Store: config.StoreSQLite, SQLitePath: filepath.Join(dir, "m.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, sqliteStore)
	require.NoError(t, sqliteStore.Close())

	_, err = NewStore(config.LanternConfig{Store: "redis"})
	assert.Error(t, err)
}
