package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable that points at a config file
// when -config is not given.
const EnvConfig = "AURORAMDL_CONFIG"

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = os.Getenv(EnvConfig)
	}
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
		resolvePaths(cfg, filepath.Dir(configPath))
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// resolvePaths makes relative MTR directories from a config file relative
// to that file's directory.
func resolvePaths(cfg *Config, base string) {
	for i, dir := range cfg.Import.MtrPaths {
		if !filepath.IsAbs(dir) {
			cfg.Import.MtrPaths[i] = filepath.Join(base, dir)
		}
	}
}

// findConfigFile looks for config in the working directory, then in the
// user config directory.
func findConfigFile() string {
	candidates := []string{
		"mdltool.yaml",
		"mdltool.yml",
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
		return filepath.Join(home, "Library", "Application Support", "AuroraMDL")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "AuroraMDL")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "auroramdl")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "auroramdl")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func loadFromFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding YAML: %w", err)
	}
	return nil
}
