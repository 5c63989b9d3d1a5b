package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/lantern"
	configFileName = "config.yaml"

	// ServersDirName holds one server definition per YAML file.
	ServersDirName = "servers"
)

// GetDefaultConfigPath returns ~/.config/lantern.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads configuration from a single directory. The directory may
// contain config.yaml and a servers/ subdirectory; both are optional.
func LoadConfig(configPath string) (LanternConfig, error) {
	cfg := GetDefaultConfig()
	cfg.configDir = configPath

	configFilePath := filepath.Join(configPath, configFileName)
	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return LanternConfig{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return LanternConfig{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	dirServers, err := LoadServerDefinitions(filepath.Join(configPath, ServersDirName))
	if err != nil {
		return LanternConfig{}, err
	}
	cfg.Servers = append(cfg.Servers, dirServers...)

	cfg.applyDefaults()

	if err := Validate(cfg); err != nil {
		return LanternConfig{}, err
	}
	return cfg, nil
}

// LoadServerDefinitions reads every *.yaml and *.yml file in dir as one
// server definition, in file name order. A missing directory yields no
// servers. The server name defaults to the file name.
func LoadServerDefinitions(dir string) ([]api.CapabilityServer, error) {
	files, err := definitionFiles(dir)
	if err != nil {
		return nil, err
	}

	var (
		servers []api.CapabilityServer
		errs    ConfigurationErrorCollection
	)
	for _, path := range files {
		fileName := filepath.Base(path)

		data, err := os.ReadFile(path)
		if err != nil {
			errs.AddError(path, fileName, "io", err.Error())
			continue
		}

		var server api.CapabilityServer
		if err := yaml.Unmarshal(data, &server); err != nil {
			errs.AddError(path, fileName, "parse", err.Error())
			continue
		}
		if server.Name == "" {
			server.Name = strings.TrimSuffix(fileName, filepath.Ext(fileName))
		}
		servers = append(servers, server)
	}

	if errs.HasErrors() {
		return nil, errs
	}
	logging.Debug("ConfigLoader", "Loaded %d server definitions from %s", len(servers), dir)
	return servers, nil
}

func definitionFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to glob %s files: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// applyDefaults expands environment references, fills server timeouts and
// resolves relative paths against the config directory.
func (c *LanternConfig) applyDefaults() {
	if c.Store == "" {
		c.Store = StoreFile
	}
	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = api.DefaultTimeout
	}
	if c.ManifestDir == "" {
		c.ManifestDir = DefaultManifestDir
	}
	if c.SQLitePath == "" {
		c.SQLitePath = DefaultSQLitePath
	}
	c.ManifestDir = c.resolvePath(c.ManifestDir)
	c.SQLitePath = c.resolvePath(c.SQLitePath)

	for i := range c.Servers {
		s := &c.Servers[i]
		if s.Timeout == 0 {
			s.Timeout = c.DefaultTimeout
		}
		ExpandServerEnv(s)
	}
}

func (c *LanternConfig) resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.configDir == "" {
		return p
	}
	return filepath.Join(c.configDir, p)
}

// ExpandServerEnv replaces ${VAR} references in the connection fields of s.
func ExpandServerEnv(s *api.CapabilityServer) {
	s.Command = os.ExpandEnv(s.Command)
	s.URL = os.ExpandEnv(s.URL)
	for i, arg := range s.Args {
		s.Args[i] = os.ExpandEnv(arg)
	}
	for k, v := range s.Env {
		s.Env[k] = os.ExpandEnv(v)
	}
	for k, v := range s.Headers {
		s.Headers[k] = os.ExpandEnv(v)
	}
}
