// Package config loads and saves the voltup TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Defaults for every configurable knob.
const (
	DefaultCacheTTLHours  = 1
	DefaultParallelChecks = 10
	DefaultBatchMax       = 4
)

// Config is the voltup configuration. A missing file yields the defaults; a
// present file with wrong types or out-of-range values fails fast rather
// than being silently ignored.
type Config struct {
	// Exclude lists packages left out of checks and updates (the pin list).
	Exclude []string `toml:"exclude"`
	// IncludeProject adds project-pinned packages to update candidates.
	IncludeProject bool `toml:"include_project"`
	// CacheTTLHours is the version cache freshness window.
	CacheTTLHours int `toml:"cache_ttl_hours"`
	// ParallelChecks is the registry fan-out width.
	ParallelChecks int `toml:"parallel_checks"`
	// BatchMax is the largest set resolved with one combined npm call.
	BatchMax int `toml:"batch_max"`
}

// Default returns a Config populated with the documented defaults.
func Default() *Config {
	return &Config{
		Exclude:        []string{},
		IncludeProject: false,
		CacheTTLHours:  DefaultCacheTTLHours,
		ParallelChecks: DefaultParallelChecks,
		BatchMax:       DefaultBatchMax,
	}
}

// Load reads the config file at path. A missing file is not an error; the
// defaults apply. Parse and validation failures are errors.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects values that would misconfigure the resolver.
func (c *Config) Validate() error {
	if c.CacheTTLHours < 0 {
		return fmt.Errorf("cache_ttl_hours must not be negative, got %d", c.CacheTTLHours)
	}
	if c.ParallelChecks < 1 {
		return fmt.Errorf("parallel_checks must be at least 1, got %d", c.ParallelChecks)
	}
	if c.BatchMax < 1 {
		return fmt.Errorf("batch_max must be at least 1, got %d", c.BatchMax)
	}
	return nil
}

// CacheTTL returns the freshness window as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// ShouldExclude reports whether name is on the pin list.
func (c *Config) ShouldExclude(name string) bool {
	return slices.Contains(c.Exclude, name)
}

// Pin adds name to the exclusion list. Returns false if already pinned.
func (c *Config) Pin(name string) bool {
	if c.ShouldExclude(name) {
		return false
	}
	c.Exclude = append(c.Exclude, name)
	slices.Sort(c.Exclude)
	return true
}

// Unpin removes name from the exclusion list. Returns false if not pinned.
func (c *Config) Unpin(name string) bool {
	idx := slices.Index(c.Exclude, name)
	if idx < 0 {
		return false
	}
	c.Exclude = slices.Delete(c.Exclude, idx, idx+1)
	return true
}

// Save writes the config to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// defaultFileTemplate mirrors Default() with comments for hand editing.
const defaultFileTemplate = `# voltup configuration

# Packages to exclude from all checks and updates.
exclude = []

# Include project-pinned packages in update candidates.
include_project = false

# Version cache time-to-live in hours.
cache_ttl_hours = 1

# Number of parallel registry checks.
parallel_checks = 10

# Largest package set resolved with one combined npm call.
batch_max = 4
`

// WriteDefault creates a commented default config file at path unless one
// already exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultFileTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
