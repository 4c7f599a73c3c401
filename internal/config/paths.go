// Package config provides configuration management for wsltamer.
package config

import (
	"os"
	"path/filepath"
)

// Paths holds platform-specific directory paths for wsltamer.
type Paths struct {
	// ConfigDir is the directory for configuration and profile state.
	// Windows: %AppData%\wsltamer
	// Others: $XDG_CONFIG_HOME/wsltamer or ~/.config/wsltamer
	ConfigDir string

	// DataDir is the directory for scratch data such as export archives.
	// All platforms: ~/.wsltamer
	DataDir string

	// ConfigFile is the path to the main config file.
	ConfigFile string
}

// GetPaths returns platform-aware paths for wsltamer.
func GetPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	configRoot, err := os.UserConfigDir()
	if err != nil {
		configRoot = filepath.Join(home, ".config")
	}

	p := &Paths{
		ConfigDir: filepath.Join(configRoot, "wsltamer"),
		DataDir:   filepath.Join(home, ".wsltamer"),
	}
	p.ConfigFile = filepath.Join(p.ConfigDir, "config.yaml")
	return p, nil
}

// EnsureDirectories creates the config and data directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	if err := os.MkdirAll(p.ConfigDir, 0755); err != nil {
		return err
	}
	if err := os.MkdirAll(p.DataDir, 0755); err != nil {
		return err
	}
	return nil
}
