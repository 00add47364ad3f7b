package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global
// config, defaults. Missing files are not errors; malformed JSON
// returns an error.
func Load(globalPath, projectPath string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return cfg, nil
}

// LoadDefault loads configuration from conventional paths.
// Global: ~/.taskdag/config.json
// Project: .taskdag/config.json (relative to cwd)
func LoadDefault() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}

	globalPath := filepath.Join(homeDir, ".taskdag", "config.json")
	projectPath := filepath.Join(".taskdag", "config.json")

	return Load(globalPath, projectPath)
}

// mergeConfigFile reads a JSON config file and merges its set fields
// into the base config. Missing files are silently skipped.
func mergeConfigFile(base *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if loaded.Runtime.Workers != 0 {
		base.Runtime.Workers = loaded.Runtime.Workers
	}
	if loaded.Runtime.TeamSize != 0 {
		base.Runtime.TeamSize = loaded.Runtime.TeamSize
	}
	if loaded.Runtime.Serial {
		base.Runtime.Serial = true
	}
	if loaded.Pool.CapacityBytes != 0 {
		base.Pool.CapacityBytes = loaded.Pool.CapacityBytes
	}
	if loaded.Pool.MinBlockBytes != 0 {
		base.Pool.MinBlockBytes = loaded.Pool.MinBlockBytes
	}
	if loaded.Monitor.Enabled {
		base.Monitor.Enabled = true
	}
	if loaded.Monitor.RefreshMillis != 0 {
		base.Monitor.RefreshMillis = loaded.Monitor.RefreshMillis
	}

	return nil
}
