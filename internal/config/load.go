package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "shrimpy")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "shrimpy")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "shrimpy")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "shrimpy")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		return nil // empty file
	}
	if err := doc.Decode(cfg); err != nil {
		return err
	}

	// Relative asset paths set by the file resolve against its directory.
	base := filepath.Dir(path)
	for _, p := range cfg.pathFields() {
		if hasKey(doc.Content[0], p.keys...) {
			resolve(base, p.value)
		}
	}
	return nil
}

// pathField is a file or directory setting and its YAML key path.
type pathField struct {
	keys  []string
	value *string
}

func (c *Config) pathFields() []pathField {
	return []pathField{
		{[]string{"atlas", "path"}, &c.Atlas.Path},
		{[]string{"atlas", "texture"}, &c.Atlas.Texture},
		{[]string{"audio", "file"}, &c.Audio.File},
		{[]string{"audio", "record_path"}, &c.Audio.RecordPath},
		{[]string{"headless", "snapshot_dir"}, &c.Headless.SnapshotDir},
		{[]string{"game", "screenshot_dir"}, &c.Game.ScreenshotDir},
	}
}

// hasKey reports whether the mapping node sets the nested key path.
func hasKey(node *yaml.Node, keys ...string) bool {
	for _, key := range keys {
		if node.Kind != yaml.MappingNode {
			return false
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				next = node.Content[i+1]
			}
		}
		if next == nil {
			return false
		}
		node = next
	}
	return true
}

func resolve(base string, path *string) {
	if *path == "" || filepath.IsAbs(*path) {
		return
	}
	*path = filepath.Join(base, *path)
}
