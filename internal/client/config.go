package client

import (
	"encoding/json"
	"os"
	"path/filepath"

	"fullmetal-planet/internal/protocol"
)

var configProfile string

// SetProfile sets the config profile for multiple instances.
func SetProfile(profile string) {
	configProfile = profile
}

// Config holds client configuration.
type Config struct {
	// Connection settings
	LastServer string            `json:"last_server"`
	Encoding   protocol.Encoding `json:"encoding,omitempty"`

	// Seat in the last room (persisted token for reconnecting)
	PlayerToken string `json:"player_token"`
	PlayerName  string `json:"player_name"`
	PlayerID    string `json:"player_id"`
	GameID      string `json:"game_id,omitempty"`
	Spectator   bool   `json:"spectator,omitempty"`
}

// DefaultConfig returns a config with default values.
func DefaultConfig() *Config {
	return &Config{
		LastServer: "localhost:30000",
		Encoding:   protocol.EncodingJSON,
	}
}

// Remember stores the seat granted by the bootstrap API.
func (c *Config) Remember(gameID, memberID, token string, spectator bool) {
	c.GameID = gameID
	c.PlayerID = memberID
	c.PlayerToken = token
	c.Spectator = spectator
}

// LoadConfig loads config from the user's config directory.
func LoadConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return DefaultConfig(), err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), err
	}

	return cfg, nil
}

// Save saves the config to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	// The token is a credential.
	return os.WriteFile(path, data, 0600)
}

// configPath returns the path to the config file.
func configPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	filename := "config.json"
	if configProfile != "" {
		filename = "config-" + configProfile + ".json"
	}

	return filepath.Join(configDir, "fullmetal-planet", filename), nil
}
