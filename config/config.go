// Package config loads dbshape configuration from defaults, an optional YAML file
// and DBSHAPE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "DBSHAPE_"

const (
	defaultSlowQueryThreshold = "200ms"
	defaultMaxQueryLength     = 1000
)

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. The YAML file at path, when path is non-empty
// 3. Default values (lowest priority)
//
// A missing file is reported as an error only when path was given explicitly.
func Load(path string) (*Config, error) {
	return LoadWithOverrides(path, nil)
}

// LoadWithOverrides is Load with a final layer of dotted-key overrides (for
// example command line flags) applied above the environment.
func LoadWithOverrides(path string, overrides map[string]any) (*Config, error) {
	return load(overrides, func(k *koanf.Koanf) error {
		if path == "" {
			return nil
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return NewInvalidFieldError("config", fmt.Sprintf("file %s does not exist", path), nil)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		return nil
	})
}

// LoadFromBytes is Load with the YAML document supplied in memory.
func LoadFromBytes(data []byte) (*Config, error) {
	return load(nil, func(k *koanf.Koanf) error {
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
		return nil
	})
}

func load(overrides map[string]any, loadYAML func(k *koanf.Koanf) error) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := loadYAML(k); err != nil {
		return nil, err
	}

	// DBSHAPE_DATABASE_COMMAND_TIMEOUT -> database.command.timeout
	if err := k.Load(envprovider.Provider(".", envprovider.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, EnvPrefix)
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to apply overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"log.level":  "info",
		"log.pretty": false,

		// Vendor and connection details have no defaults; they must be configured.
		"database.command.timeout":             30,
		"database.command.prepare":             false,
		"database.tracking.slowquerythreshold": defaultSlowQueryThreshold,
		"database.tracking.logparameters":      false,
		"database.tracking.maxquerylength":     defaultMaxQueryLength,

		"export.header": true,
		"export.crlf":   false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

// String returns the raw value at a dotted key path, or "" when unset.
func (c *Config) String(path string) string {
	if c.k == nil {
		return ""
	}
	return c.k.String(path)
}

// Exists reports whether a dotted key path was set by any source.
func (c *Config) Exists(path string) bool {
	return c.k != nil && c.k.Exists(path)
}
