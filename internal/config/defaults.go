package config

import (
	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/telemetry"
)

const (
	// DefaultManifestDir is where manifests are written, relative to the config directory.
	DefaultManifestDir = "knowledge/servers"

	// DefaultSQLitePath is the manifest index file, relative to the config directory.
	DefaultSQLitePath = "manifests.db"

	// DefaultServiceName identifies lantern in exported traces.
	DefaultServiceName = "lantern"
)

// GetDefaultConfig returns the default configuration
func GetDefaultConfig() LanternConfig {
	return LanternConfig{
		ManifestDir:    DefaultManifestDir,
		Store:          StoreFile,
		SQLitePath:     DefaultSQLitePath,
		DefaultTimeout: api.DefaultTimeout,
		Telemetry: telemetry.Config{
			ServiceName: DefaultServiceName,
		},
	}
}
