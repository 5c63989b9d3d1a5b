package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/pkg/logging"

	"gopkg.in/yaml.v3"
)

// Storage persists server definitions as individual files under
// <configPath>/servers, where LoadConfig picks them up.
type Storage struct {
	mu         sync.RWMutex
	configPath string
}

// NewStorageWithPath creates a Storage rooted at configPath.
func NewStorageWithPath(configPath string) *Storage {
	return &Storage{configPath: configPath}
}

// SaveServer writes the definition of s, replacing any existing file.
func (ds *Storage) SaveServer(s api.CapabilityServer) error {
	if err := ValidateServer(s); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode server %s: %w", s.Name, err)
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	dir := ds.serversDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	filePath := filepath.Join(dir, sanitizeFilename(s.Name)+".yaml")
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filePath, err)
	}

	logging.Info("Storage", "Saved server %s to %s", s.Name, filePath)
	return nil
}

// DeleteServer removes the definition file of the named server.
func (ds *Storage) DeleteServer(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	for _, ext := range []string{".yaml", ".yml"} {
		filePath := filepath.Join(ds.serversDir(), sanitizeFilename(name)+ext)
		err := os.Remove(filePath)
		if err == nil {
			logging.Info("Storage", "Deleted server %s from %s", name, filePath)
			return nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete file %s: %w", filePath, err)
		}
	}
	return api.NewServerNotFoundError(name)
}

// ListServers returns the definitions stored under servers/.
func (ds *Storage) ListServers() ([]api.CapabilityServer, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return LoadServerDefinitions(ds.serversDir())
}

func (ds *Storage) serversDir() string {
	return filepath.Join(ds.configPath, ServersDirName)
}

// sanitizeFilename ensures the filename is safe for filesystem operations
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", ".", "_", " ", "_",
	)
	sanitized := replacer.Replace(strings.TrimSpace(name))

	// Collapse multiple consecutive underscores to single underscore
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")

	if sanitized == "" {
		sanitized = "unnamed"
	}
	return sanitized
}
