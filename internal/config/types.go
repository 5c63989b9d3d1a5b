package config

import (
	"time"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/telemetry"
)

// StoreKind selects where compiled manifests are written.
type StoreKind string

const (
	// StoreFile writes one markdown file per server.
	StoreFile StoreKind = "file"
	// StoreSQLite writes manifests into an SQLite index.
	StoreSQLite StoreKind = "sqlite"
)

// LanternConfig is the top-level configuration structure for lantern.
type LanternConfig struct {
	// ManifestDir receives <server>.md files. Relative paths resolve against the config directory.
	ManifestDir string    `yaml:"manifestDir,omitempty" json:"manifestDir,omitempty"`
	Store       StoreKind `yaml:"store,omitempty" json:"store,omitempty"`
	// SQLitePath is the database file for the sqlite store.
	SQLitePath string `yaml:"sqlitePath,omitempty" json:"sqlitePath,omitempty"`

	// DenyDestructive hides destructive operations from every server.
	DenyDestructive bool `yaml:"denyDestructive,omitempty" json:"denyDestructive,omitempty"`
	// DestructiveOperations overrides the built-in destructive operation list.
	DestructiveOperations []string `yaml:"destructiveOperations,omitempty" json:"destructiveOperations,omitempty"`

	// DefaultTimeout applies to servers that leave their timeout unset.
	DefaultTimeout time.Duration `yaml:"defaultTimeout,omitempty" json:"defaultTimeout,omitempty"`

	Telemetry telemetry.Config `yaml:"telemetry,omitempty" json:"telemetry,omitempty"`

	Servers []api.CapabilityServer `yaml:"servers,omitempty" json:"servers,omitempty"`

	// configDir is the directory the configuration was loaded from.
	configDir string
}

// ConfigDir returns the directory the configuration was loaded from.
func (c LanternConfig) ConfigDir() string { return c.configDir }

// Server returns the named server definition.
func (c LanternConfig) Server(name string) (api.CapabilityServer, bool) {
	for _, s := range c.Servers {
		if s.Name == name {
			return s, true
		}
	}
	return api.CapabilityServer{}, false
}
