package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type UserConfig struct {
	User     User     `toml:"user"`
	Defaults Defaults `toml:"defaults"`
}

type User struct {
	UUID      string    `toml:"user_uuid"`
	CreatedAt time.Time `toml:"created_at"`
}

type Defaults struct {
	// SecretsFile overrides the project secret file name used by discovery.
	SecretsFile string `toml:"secrets_file,omitempty"`
}

// LoadUserConfig loads the user configuration from the store home.
// A missing config file yields an empty config, not an error.
func LoadUserConfig() (*UserConfig, error) {
	configPath := filepath.Join(UserSealenvSettings.StoreHome, userConfigName)

	config := &UserConfig{}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := LoadTOML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	return config, nil
}

// SaveUserConfig saves the user configuration to the store home.
func SaveUserConfig(config *UserConfig) error {
	configPath := filepath.Join(UserSealenvSettings.StoreHome, userConfigName)

	if err := SaveTOML(configPath, config); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}

	return nil
}

// GenerateUserUUID generates a new UUID for the user.
func GenerateUserUUID() string {
	return uuid.New().String()
}

// EnsureUserConfig ensures the user configuration exists and has a UUID.
func EnsureUserConfig() (*UserConfig, error) {
	config, err := LoadUserConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if config.User.UUID == "" {
		config.User.UUID = GenerateUserUUID()
		config.User.CreatedAt = time.Now().UTC()
		if err := SaveUserConfig(config); err != nil {
			return nil, fmt.Errorf("failed to save user config: %w", err)
		}
	}

	return config, nil
}
