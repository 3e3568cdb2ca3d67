// Package config loads the lune.yaml project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the project root
const FileName = "lune.yaml"

// Config represents the lune.yaml configuration
type Config struct {
	// Directory scanned for templates
	SourceDir string `yaml:"sourceDir,omitempty"`

	// Directory compiled modules are written to
	OutDir string `yaml:"outDir,omitempty"`

	// Template file extension, including the dot
	Extension string `yaml:"extension,omitempty"`

	// Suppress all log output
	Silent bool `yaml:"silent,omitempty"`

	// Extra event modifiers, name to guard code
	Modifiers map[string]string `yaml:"modifiers,omitempty"`

	// Extra identifiers never reported as dependencies
	Exclude []string `yaml:"exclude,omitempty"`

	// Compiled output cache
	Cache *CacheConfig `yaml:"cache,omitempty"`
}

// CacheConfig contains cache-related configuration
type CacheConfig struct {
	// Whether unchanged templates are served from the cache
	Enabled bool `yaml:"enabled"`

	// Cache directory, relative to the project root unless absolute
	Dir string `yaml:"dir,omitempty"`
}

// UnmarshalYAML starts from the default cache settings, so a block that
// only sets dir keeps the cache enabled.
func (c *CacheConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain CacheConfig
	decoded := plain(*DefaultConfig().Cache)
	if err := value.Decode(&decoded); err != nil {
		return err
	}
	*c = CacheConfig(decoded)
	return nil
}

// Load loads configuration from lune.yaml in projectPath, then applies
// environment overrides.
func Load(projectPath string) (*Config, error) {
	configPath := filepath.Join(projectPath, FileName)

	config := DefaultConfig()
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, err
	default:
		config = &Config{}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
		applyDefaults(config)
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}
	return config, config.Validate()
}

// Save saves configuration to lune.yaml
func Save(config *Config, projectPath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(projectPath, FileName), data, 0644)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		SourceDir: ".",
		Extension: ".moon",
		Modifiers: make(map[string]string),
		Cache: &CacheConfig{
			Enabled: true,
			Dir:     ".lune/cache",
		},
	}
}

// applyDefaults applies default values to missing configuration
func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	if config.SourceDir == "" {
		config.SourceDir = defaults.SourceDir
	}

	if config.Extension == "" {
		config.Extension = defaults.Extension
	} else if !strings.HasPrefix(config.Extension, ".") {
		config.Extension = "." + config.Extension
	}

	if config.Modifiers == nil {
		config.Modifiers = defaults.Modifiers
	}

	if config.Cache == nil {
		config.Cache = defaults.Cache
	} else if config.Cache.Dir == "" {
		config.Cache.Dir = defaults.Cache.Dir
	}
}

// applyEnv overrides file values with LUNE_SILENT and LUNE_CACHE
func applyEnv(config *Config) error {
	if v, ok := os.LookupEnv("LUNE_SILENT"); ok {
		silent, err := cast.ToBoolE(v)
		if err != nil {
			return fmt.Errorf("LUNE_SILENT: %w", err)
		}
		config.Silent = silent
	}
	if v, ok := os.LookupEnv("LUNE_CACHE"); ok {
		enabled, err := cast.ToBoolE(v)
		if err != nil {
			return fmt.Errorf("LUNE_CACHE: %w", err)
		}
		config.Cache.Enabled = enabled
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Extension == "." {
		return fmt.Errorf("config: extension must name a suffix")
	}
	for name := range c.Modifiers {
		if name == "" || strings.ContainsAny(name, ". ") {
			return fmt.Errorf("config: invalid modifier name %q", name)
		}
	}
	for _, name := range c.Exclude {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("config: empty exclude entry")
		}
	}
	return nil
}

// CacheDir resolves the cache directory against projectPath
func (c *Config) CacheDir(projectPath string) string {
	if c.Cache == nil || c.Cache.Dir == "" {
		return filepath.Join(projectPath, DefaultConfig().Cache.Dir)
	}
	if filepath.IsAbs(c.Cache.Dir) {
		return c.Cache.Dir
	}
	return filepath.Join(projectPath, c.Cache.Dir)
}
