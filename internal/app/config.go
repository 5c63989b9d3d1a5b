package app

import (
	"github.com/giantswarm/lantern/internal/config"
	"github.com/giantswarm/lantern/pkg/logging"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug bool

	// LogFormat selects text or json log lines.
	LogFormat logging.Format

	// Quiet suppresses informational logs.
	Quiet bool

	// Safety settings
	Yolo bool

	// Custom configuration path (optional)
	// When empty, ~/.config/lantern is used.
	ConfigPath string

	// Loaded lantern configuration
	LanternConfig *config.LanternConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug, yolo bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		Yolo:       yolo,
		ConfigPath: configPath,
		LogFormat:  logging.FormatText,
	}
}

// logLevel returns the level logging is initialized with.
func (c *Config) logLevel() logging.LogLevel {
	switch {
	case c.Debug:
		return logging.LevelDebug
	case c.Quiet:
		return logging.LevelWarn
	default:
		return logging.LevelInfo
	}
}
