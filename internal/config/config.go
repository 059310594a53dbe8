// Package config provides configuration management for refnum.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Prefix configures one reference namespace (the part of a label before
// the colon, e.g. "fig" in @fig:results).
type Prefix struct {
	// PlusName is the [singular, plural] pair used for "+" references.
	PlusName [2]string `yaml:"plus_name,flow"`
	// StarName is the [singular, plural] pair used for "*" references.
	StarName [2]string `yaml:"star_name,flow"`
	// NumberBySection numbers targets as section.index instead of globally.
	NumberBySection bool `yaml:"number_by_section,omitempty"`
}

// Config holds the refnum configuration.
type Config struct {
	// WarningLevel: 0 silences warnings, 1 prints critical ones, 2 prints
	// everything.
	WarningLevel int `yaml:"warning_level"`
	// Cleveref renders every reference as a clever reference by default.
	Cleveref bool `yaml:"cleveref,omitempty"`
	// FakeCleveref emits poor-man's cleveref TeX instead of requiring the
	// cleveref package.
	FakeCleveref bool `yaml:"fake_cleveref,omitempty"`
	// Eqref renders equation references with \eqref.
	Eqref bool `yaml:"eqref,omitempty"`
	// AllowImplicit resolves bare section references against header ids.
	AllowImplicit bool `yaml:"allow_implicit,omitempty"`

	Prefixes map[string]Prefix `yaml:"prefixes,omitempty"`
}

var prefixKeyPattern = regexp.MustCompile(`^[a-zA-Z][\w-]*$`)

// Default returns the stock configuration covering the four conventional
// namespaces.
func Default() *Config {
	return &Config{
		WarningLevel: 2,
		Prefixes: map[string]Prefix{
			"fig": {PlusName: [2]string{"fig.", "figs."}, StarName: [2]string{"Figure", "Figures"}},
			"eq":  {PlusName: [2]string{"eq.", "eqs."}, StarName: [2]string{"Equation", "Equations"}},
			"tbl": {PlusName: [2]string{"table", "tables"}, StarName: [2]string{"Table", "Tables"}},
			"sec": {PlusName: [2]string{"sec.", "secs."}, StarName: [2]string{"Section", "Sections"}},
		},
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.WarningLevel < 0 || c.WarningLevel > 2 {
		return errors.New("warning_level must be 0, 1 or 2")
	}
	if len(c.Prefixes) == 0 {
		return errors.New("at least one prefix is required")
	}
	for key := range c.Prefixes {
		if !prefixKeyPattern.MatchString(key) {
			return fmt.Errorf("invalid prefix key %q", key)
		}
	}
	return nil
}

// LoadFromEnv overrides configuration from environment variables.
// Variables override existing values only if set and non-empty.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("REFNUM_WARNING_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.WarningLevel = n
		}
	}
	if v := os.Getenv("REFNUM_CLEVEREF"); v != "" {
		c.Cleveref = isTruthy(v)
	}
	if v := os.Getenv("REFNUM_FAKE_CLEVEREF"); v != "" {
		c.FakeCleveref = isTruthy(v)
	}
	if v := os.Getenv("REFNUM_EQREF"); v != "" {
		c.Eqref = isTruthy(v)
	}
}

func isTruthy(v string) bool {
	return v == "1" || v == "true" || v == "True" || v == "yes"
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "refnum", "config.yml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".refnum", "config.yml")
	}

	return filepath.Join(home, ".config", "refnum", "config.yml")
}

// Save writes the configuration to the specified path.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load reads the configuration from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadWithEnv loads configuration from file, falling back to defaults when
// the file is absent, and applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		cfg = Default()
	}

	cfg.LoadFromEnv()
	return cfg, nil
}
