// Package config loads the backend service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config aggregates the backend service configuration.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	upstream, err := loadUpstreamConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Upstream: upstream}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":5000" or "127.0.0.1:5000" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// UpstreamConfig describes the chat-completion provider /chat proxies to.
type UpstreamConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Configured reports whether the upstream credentials are present.
func (c UpstreamConfig) Configured() bool {
	return c.APIKey != ""
}

func loadUpstreamConfig() (UpstreamConfig, error) {
	temperature := 0.7
	if override, err := parseOptionalFloatEnv("UPSTREAM_TEMPERATURE"); err != nil {
		return UpstreamConfig{}, err
	} else if override != nil {
		temperature = *override
	}

	maxTokens := 1024
	if override, err := parseOptionalIntEnv("UPSTREAM_MAX_TOKENS"); err != nil {
		return UpstreamConfig{}, err
	} else if override != nil {
		maxTokens = *override
	}

	return UpstreamConfig{
		APIKey:      strings.TrimSpace(os.Getenv("TOGETHER_API_KEY")),
		BaseURL:     getEnvOrDefault("UPSTREAM_BASE_URL", "https://api.together.xyz/v1"),
		Model:       getEnvOrDefault("UPSTREAM_MODEL", "mistralai/Mixtral-8x7B-Instruct-v0.1"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
