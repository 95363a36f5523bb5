package config

import (
	"fmt"
	"os"
	"path/filepath"

	"metamod/internal/errors"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration structure.
// It controls how the metadata tool is invoked and how the front ends behave.
type Config struct {
	ExifTool struct {
		Path           string `yaml:"path"`            // Executable name or absolute path
		KeepBackup     bool   `yaml:"keep_backup"`     // Leave the tool's _original backup files
		TimeoutSeconds int    `yaml:"timeout_seconds"` // CLI only; 0 disables the timeout
	} `yaml:"exiftool"`
	GUI struct {
		ConfirmClear       bool `yaml:"confirm_clear"`        // Ask before removing all metadata
		ShowSuccessDialogs bool `yaml:"show_success_dialogs"` // Report successful edits in a dialog
		WatchFile          bool `yaml:"watch_file"`           // Reload when the file changes on disk
		WindowWidth        int  `yaml:"window_width"`
		WindowHeight       int  `yaml:"window_height"`
	} `yaml:"gui"`
	Logging struct {
		Debug bool   `yaml:"debug"`
		JSON  bool   `yaml:"json"`
		File  string `yaml:"file"` // Also append log lines to this file
	} `yaml:"logging"`
}

// DefaultPath returns ~/.config/metamod/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "metamod", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location.
func LoadConfig() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(path)
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.NewConfigError("error reading config file", path, errors.ConfigNotFound, err)
	}

	// Decoding onto the defaults keeps every value the file leaves out.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError("error parsing config file", path, errors.InvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns the default configuration with safe defaults.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.ExifTool.Path = "exiftool"
	cfg.ExifTool.KeepBackup = false // Edits replace the file in place
	cfg.ExifTool.TimeoutSeconds = 0

	cfg.GUI.ConfirmClear = true
	cfg.GUI.ShowSuccessDialogs = true
	cfg.GUI.WatchFile = true
	cfg.GUI.WindowWidth = 900
	cfg.GUI.WindowHeight = 600

	cfg.Logging.Debug = false
	cfg.Logging.JSON = false
	cfg.Logging.File = ""

	return cfg
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}

	if c.ExifTool.Path == "" {
		return errors.NewConfigError("metadata tool path is required", "exiftool.path", errors.InvalidConfig, nil)
	}
	if c.ExifTool.TimeoutSeconds < 0 {
		return errors.NewConfigError("timeout must be >= 0 seconds", "exiftool.timeout_seconds", errors.InvalidConfig, nil)
	}
	if c.GUI.WindowWidth <= 0 {
		return errors.NewConfigError("window width must be positive", "gui.window_width", errors.InvalidConfig, nil)
	}
	if c.GUI.WindowHeight <= 0 {
		return errors.NewConfigError("window height must be positive", "gui.window_height", errors.InvalidConfig, nil)
	}

	return nil
}

// NewTestConfig creates a configuration instance for testing purposes.
// Success dialogs and the file watcher are off so tests stay deterministic.
func NewTestConfig() *Config {
	cfg := defaultConfig()
	cfg.GUI.ShowSuccessDialogs = false
	cfg.GUI.WatchFile = false
	return cfg
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}
