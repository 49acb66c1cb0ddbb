// Package config loads okrboard settings from an optional YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds application settings. File values are overridden by
// environment variables.
type Config struct {
	AppID       string `yaml:"app_id" env:"OKRBOARD_APP_ID"`
	AuthSecret  string `yaml:"auth_secret" env:"OKRBOARD_AUTH_SECRET"`
	DefaultTeam string `yaml:"default_team" env:"OKRBOARD_DEFAULT_TEAM"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		AppID:       "okrboard",
		DefaultTeam: "General",
	}
}

// Load reads the config file at path (missing file is fine) and then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.AppID == "" {
		cfg.AppID = Default().AppID
	}
	if cfg.DefaultTeam == "" {
		cfg.DefaultTeam = Default().DefaultTeam
	}
	return cfg, nil
}

// Write persists the configuration as YAML.
func Write(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
