package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// configFileHeader is prepended to every generated configuration file.
const configFileHeader = `# Offline Foundation Configuration File
#
# Generated by offlinectl init. Every section below has sensible defaults
# already applied; edit only what your deployment needs to change.
#
# Sections: logging, telemetry, network_detector, circuit_breaker,
# replay_queue, cache, conflict, overlay, metrics, api.

`

// InitConfig writes a default configuration file to the default location,
// returning the path it wrote to. It refuses to overwrite an existing file
// unless force is true.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path, refusing to
// overwrite an existing file unless force is true.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := GetDefaultConfig()

	if err := SaveConfig(cfg, path); err != nil {
		return err
	}

	return prependHeader(path)
}

// prependHeader adds the descriptive comment block ahead of the YAML body
// SaveConfig already wrote, since yaml.Marshal has no notion of a file
// banner.
func prependHeader(path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read generated config: %w", err)
	}

	content := append([]byte(configFileHeader), body...)
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write generated config: %w", err)
	}

	return nil
}
