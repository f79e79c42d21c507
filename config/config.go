// Package config provides configuration management for OpenVPN Manager.
// It handles loading, saving, and validating application settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nkurtalj/openvpn-manager/common"
)

// EnvConfigPath is the environment variable that overrides the location of
// the configuration file.
const EnvConfigPath = "OPENVPN_MANAGER_CONFIG"

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config directory.
type Config struct {
	// OpenVPNDir is the root directory scanned for .ovpn tunnel
	// definition files. Environment variables are expanded.
	OpenVPNDir string `yaml:"openvpn_dir"`
	// CredentialsDir is the directory holding .cred credential files.
	// Environment variables are expanded.
	CredentialsDir string `yaml:"credentials_dir"`
	// ShowNotifications enables desktop notifications for session outcomes.
	ShowNotifications bool `yaml:"show_notifications"`
	// RecordHistory enables the session history database.
	RecordHistory bool `yaml:"record_history"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		OpenVPNDir:        "$HOME/openvpn/OpenVPN_files",
		CredentialsDir:    "$HOME/openvpn/.credentials",
		ShowNotifications: true,
		RecordHistory:     true,
	}
}

// Load loads the configuration from the config file.
// If the file doesn't exist, it creates one with default values.
// Directory paths in the returned config have environment variables expanded.
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}

	// First run: persist and return the defaults.
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.Save(); err != nil {
			return nil, err
		}
		cfg.expand()
		return cfg, nil
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfigLoad, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true) // Strict validation: reject unknown fields

	var config Config
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfigLoad, err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfigLoad, err)
	}

	config.expand()
	return &config, nil
}

// validate verifies that configuration values are usable, filling in
// defaults for missing paths.
func (c *Config) validate() error {
	defaults := DefaultConfig()
	if c.OpenVPNDir == "" {
		c.OpenVPNDir = defaults.OpenVPNDir
	}
	if c.CredentialsDir == "" {
		c.CredentialsDir = defaults.CredentialsDir
	}
	return nil
}

// expand resolves environment variable references in the directory paths.
func (c *Config) expand() {
	c.OpenVPNDir = os.ExpandEnv(c.OpenVPNDir)
	c.CredentialsDir = os.ExpandEnv(c.CredentialsDir)
}

// Save saves the configuration to the config file.
func (c *Config) Save() error {
	configPath, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}

	return nil
}

// Path returns the location of the configuration file, honoring the
// OPENVPN_MANAGER_CONFIG environment override.
func Path() (string, error) {
	if override := os.Getenv(EnvConfigPath); override != "" {
		return override, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", common.ConfigDirName, common.ConfigFileName), nil
}
