package manifest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/config"
	"github.com/giantswarm/lantern/pkg/logging"
)

// ErrManifestNotFound is returned by Read when no manifest exists for a server.
var ErrManifestNotFound = errors.New("manifest not found")

// Store persists compiled manifests.
type Store interface {
	// Write compiles ops and replaces whatever the store held for server.
	Write(ctx context.Context, server string, ops []api.Operation) error
	// Remove deletes the manifest of server. Removing a missing manifest is not an error.
	Remove(ctx context.Context, server string) error
	// Read returns the manifest text of server.
	Read(ctx context.Context, server string) (string, error)
	// List returns the servers that have a manifest, sorted by name.
	List(ctx context.Context) ([]string, error)
	// Close releases the store.
	Close() error
}

// Compile-time interface compliance checks
var (
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

// NewStore opens the store selected by cfg.
func NewStore(cfg config.LanternConfig) (Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case config.StoreFile, "":
		return NewFileStore(cfg.ManifestDir), nil
	default:
		return nil, fmt.Errorf("unsupported manifest store: %q", cfg.Store)
	}
}

const manifestExt = ".md"

// FileStore keeps one markdown file per server in a directory.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a store writing into dir. The directory is created on
// the first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the manifest directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the file the manifest of server is written to.
func (s *FileStore) Path(server string) string {
	return filepath.Join(s.dir, fileName(server)+manifestExt)
}

// Write replaces the manifest file of server. The text goes to a temporary
// file in the same directory first and is renamed into place, so readers
// never see a partial manifest.
func (s *FileStore) Write(ctx context.Context, server string, ops []api.Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := Compile(server, ops)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+fileName(server)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest for %s: %w", server, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write manifest for %s: %w", server, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write manifest for %s: %w", server, err)
	}

	target := s.Path(server)
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace manifest %s: %w", target, err)
	}

	logging.Debug("Manifest", "Wrote %s (%d operations)", target, len(ops))
	return nil
}

// Remove deletes the manifest file of server.
func (s *FileStore) Remove(ctx context.Context, server string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.Path(server)
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove manifest %s: %w", target, err)
	}
	return nil
}

// Read returns the manifest text of server.
func (s *FileStore) Read(ctx context.Context, server string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(s.Path(server))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w for server %s", ErrManifestNotFound, server)
		}
		return "", fmt.Errorf("failed to read manifest for %s: %w", server, err)
	}
	return string(data), nil
}

// List returns the servers with a manifest file.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read manifest directory %s: %w", s.dir, err)
	}

	var servers []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != manifestExt {
			continue
		}
		server, err := serverFromFileName(strings.TrimSuffix(name, manifestExt))
		if err != nil {
			logging.Debug("Manifest", "Ignoring foreign file %s in %s", name, s.dir)
			continue
		}
		servers = append(servers, server)
	}
	sort.Strings(servers)
	return servers, nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

// fileName maps a server name onto a safe file name stem. The mapping is
// injective, so two servers never share a manifest file. A leading dot is
// escaped to keep the file visible to List.
func fileName(server string) string {
	name := url.QueryEscape(server)
	if strings.HasPrefix(name, ".") {
		name = "%2E" + name[1:]
	}
	return name
}

// serverFromFileName reverses fileName.
func serverFromFileName(stem string) (string, error) {
	return url.QueryUnescape(stem)
}
