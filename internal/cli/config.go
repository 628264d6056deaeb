// Package cli implements the interactive terminal client.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the client settings persisted under ~/.chatbox/config.yaml.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	History HistoryConfig `mapstructure:"history"`
}

// ServerConfig names the backend the client talks to.
type ServerConfig struct {
	URL string `mapstructure:"url"`
}

// HistoryConfig locates the local conversation history.
type HistoryConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoadConfig initializes viper, creating the config directory and a default
// file on first run.
func LoadConfig() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	dir := filepath.Join(home, ".chatbox")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	viper.SetDefault("server.url", "http://localhost:5000")
	viper.SetDefault("history.dir", dir)

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		_ = viper.SafeWriteConfig()
	} else if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
