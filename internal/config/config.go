// Package config loads inspector settings from YAML or TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Config holds settings shared by the CLI and the engine.
type Config struct {
	// Verbosity is the log level passed to commonlog: 0 errors only,
	// higher values are chattier.
	Verbosity int `yaml:"verbosity" toml:"verbosity"`
	// LogFile is where log output goes. Empty means stderr.
	LogFile string `yaml:"log_file,omitempty" toml:"log_file,omitempty"`
	// Workers bounds concurrent analyses during warm up.
	Workers int `yaml:"workers" toml:"workers"`
	// Source configures how Go packages are loaded for getter bodies.
	Source Source `yaml:"source" toml:"source"`
}

// Source configures the package loader.
type Source struct {
	Dir        string   `yaml:"dir,omitempty" toml:"dir,omitempty"`
	BuildFlags []string `yaml:"build_flags,omitempty" toml:"build_flags,omitempty"`
	Tests      bool     `yaml:"tests,omitempty" toml:"tests,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// FormatOf picks the format from a file extension. Unknown extensions are YAML.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// LoadFile loads and parses a configuration file from the given path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data, FormatOf(path))
}

// Parse parses data in the given format.
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config

	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config TOML: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(cfg *Config) {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	if cfg.Verbosity < 0 {
		cfg.Verbosity = 0
	}
}

// Marshal serializes a Config in the given format.
func Marshal(cfg *Config, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
			return nil, err
		}
		return []byte(sb.String()), nil
	case FormatYAML:
		return yaml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}
}

// WriteFile writes a Config to path, in the format its extension names.
func WriteFile(cfg *Config, path string) error {
	data, err := Marshal(cfg, FormatOf(path))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}
