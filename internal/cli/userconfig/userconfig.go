package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName  = "uptome"
	configFileName = "config.json"
)

// UserConfig represents the user's local configuration stored in ~/.config/uptome/config.json
type UserConfig struct {
	// Sessions maps a backend origin to its session token. Only used when
	// the OS keychain is not available.
	Sessions     map[string]string `json:"sessions,omitempty"`
	LastUsername string            `json:"last_username,omitempty"`
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", configDirName)
	return filepath.Join(configDir, configFileName), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return empty config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &UserConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file. The file holds session
// tokens, so it is only readable by the owner.
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// SetSession stores the session token for origin and saves the config
func SetSession(origin, token string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	if cfg.Sessions == nil {
		cfg.Sessions = make(map[string]string)
	}
	cfg.Sessions[origin] = token
	return Save(cfg)
}

// GetSession returns the session token for origin, or empty string if not set
func GetSession(origin string) (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	return cfg.Sessions[origin], nil
}

// ClearSession removes the session token for origin
func ClearSession(origin string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	if _, ok := cfg.Sessions[origin]; !ok {
		return nil
	}
	delete(cfg.Sessions, origin)
	return Save(cfg)
}

// SetLastUsername remembers the username used at the last registration
func SetLastUsername(username string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.LastUsername = username
	return Save(cfg)
}
