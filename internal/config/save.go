package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Save writes the config to config.yaml in the user's config directory
// and returns the path written.
func (c *Config) Save() (string, error) {
	path := filepath.Join(ConfigDir(), "config.yaml")
	return path, c.SaveTo(path)
}

// SaveTo writes the config to a specific path, creating parent directories.
// Relative paths are written as absolute paths from the working directory,
// since a loaded file resolves them against its own directory.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	out := *c
	for _, p := range out.pathFields() {
		if *p.value == "" || filepath.IsAbs(*p.value) {
			continue
		}
		abs, err := filepath.Abs(*p.value)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", *p.value, err)
		}
		*p.value = abs
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
