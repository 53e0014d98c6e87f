// Package config loads and saves the CLI configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment names accepted in the config file.
const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"
)

// Base URLs for the E*TRADE API environments.
const (
	SandboxBaseURL    = "https://apisb.etrade.com"
	ProductionBaseURL = "https://api.etrade.com"
)

// Defaults applied when the config file is missing or partial.
const (
	DefaultEnvironment   = EnvSandbox
	DefaultChainProvider = "AUTO"
	DefaultStrikeCount   = 20
)

// Config holds the CLI configuration.
type Config struct {
	ConsumerKey   string `yaml:"consumer_key"`
	Environment   string `yaml:"environment"`
	AccountIDKey  string `yaml:"account_id_key"`
	ChainProvider string `yaml:"chain_provider"`
	StrikeCount   int    `yaml:"strike_count"`
}

// BaseURL returns the API base URL for the configured environment.
func (c *Config) BaseURL() string {
	if c.Environment == EnvProduction {
		return ProductionBaseURL
	}
	return SandboxBaseURL
}

// ConfigPath returns the default config file location.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "etrade-mcp", "config.yaml")
}

// Load reads the config from the given path. A missing file is not an
// error; defaults are returned instead.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Environment:   DefaultEnvironment,
		ChainProvider: DefaultChainProvider,
		StrikeCount:   DefaultStrikeCount,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Re-apply defaults for fields the file left empty.
	if cfg.Environment == "" {
		cfg.Environment = DefaultEnvironment
	}
	if cfg.ChainProvider == "" {
		cfg.ChainProvider = DefaultChainProvider
	}
	if cfg.StrikeCount <= 0 {
		cfg.StrikeCount = DefaultStrikeCount
	}

	return cfg, nil
}

// Save writes the config to the given path, creating parent directories
// as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
