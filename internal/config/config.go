package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all wsltamer settings.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `mapstructure:"log_json"`

	// WSLPath is the wsl.exe binary.
	WSLPath string `mapstructure:"wsl_path"`

	// PowerShellPath is the PowerShell binary used by the system probe and
	// kill-all.
	PowerShellPath string `mapstructure:"powershell_path"`

	// CommandTimeout bounds each read-only wsl.exe or PowerShell call.
	// Mutating commands are never timed out.
	CommandTimeout time.Duration `mapstructure:"command_timeout"`

	// CacheTTL is how long a captured instance list stays fresh.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// MetricsInterval is the minimum time between two metric collections.
	MetricsInterval time.Duration `mapstructure:"metrics_interval"`

	// AutomationInterval is how often automation rules are evaluated.
	AutomationInterval time.Duration `mapstructure:"automation_interval"`

	// ApplyCooldown is the minimum time between two automatic profile
	// applications.
	ApplyCooldown time.Duration `mapstructure:"apply_cooldown"`

	// StatePath is the YAML file holding profiles and rules.
	StatePath string `mapstructure:"state_path"`

	// TempDir holds export archives during clone and move.
	TempDir string `mapstructure:"temp_dir"`

	// GlobalConfigPath overrides the location of .wslconfig.
	GlobalConfigPath string `mapstructure:"global_config_path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	paths, err := GetPaths()
	if err != nil {
		// Fallback if we can't determine home directory
		paths = &Paths{
			ConfigDir: filepath.Join(".", "wsltamer"),
			DataDir:   filepath.Join(".", "wsltamer"),
		}
	}

	return &Config{
		LogLevel:           "info",
		LogJSON:            false,
		WSLPath:            "wsl.exe",
		PowerShellPath:     "powershell.exe",
		CommandTimeout:     30 * time.Second,
		CacheTTL:           2 * time.Second,
		MetricsInterval:    time.Second,
		AutomationInterval: 30 * time.Second,
		ApplyCooldown:      5 * time.Minute,
		StatePath:          filepath.Join(paths.ConfigDir, "profiles.yaml"),
		TempDir:            filepath.Join(paths.DataDir, "tmp"),
		GlobalConfigPath:   "",
	}
}

// Global holds the loaded configuration.
var Global *Config

// Load reads configuration from file, environment, and defaults into Global.
func Load() error {
	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("determine paths: %w", err)
	}
	cfg, err := load(viper.GetViper(), paths)
	if err != nil {
		return err
	}
	Global = cfg
	return nil
}

func load(v *viper.Viper, paths *Paths) (*Config, error) {
	defaults := DefaultConfig()
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_json", defaults.LogJSON)
	v.SetDefault("wsl_path", defaults.WSLPath)
	v.SetDefault("powershell_path", defaults.PowerShellPath)
	v.SetDefault("command_timeout", defaults.CommandTimeout)
	v.SetDefault("cache_ttl", defaults.CacheTTL)
	v.SetDefault("metrics_interval", defaults.MetricsInterval)
	v.SetDefault("automation_interval", defaults.AutomationInterval)
	v.SetDefault("apply_cooldown", defaults.ApplyCooldown)
	v.SetDefault("state_path", defaults.StatePath)
	v.SetDefault("temp_dir", defaults.TempDir)
	v.SetDefault("global_config_path", defaults.GlobalConfigPath)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(paths.DataDir)
	v.AddConfigPath(paths.ConfigDir)

	// Environment variable support: WSLTAMER_LOG_LEVEL, WSLTAMER_CACHE_TTL, etc.
	v.SetEnvPrefix("WSLTAMER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - not an error if missing)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ConfigFileUsed returns the path of the config file being used, if any.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
