package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the root configuration structure
type Config struct {
	Service Service `mapstructure:"service"`
	History History `mapstructure:"history"`
	Storage Storage `mapstructure:"storage"`
	Logging Logging `mapstructure:"logging"`
	Debug   bool    `mapstructure:"debug"`
}

// Service identifies the monitored service and how to reach its API
type Service struct {
	Name         string        `mapstructure:"name"`
	Binary       string        `mapstructure:"binary"`
	BaseURL      string        `mapstructure:"base_url"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// History bounds the in-memory metric series
type History struct {
	Capacity  int           `mapstructure:"capacity"`
	Retention time.Duration `mapstructure:"retention"`
}

// Storage holds snapshot persistence settings
type Storage struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Logging holds log output settings
type Logging struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

// LoadConfig loads configuration from YAML file and environment variables
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.config/swapwatch")
	viper.AddConfigPath(".")

	// Environment variable support
	viper.AutomaticEnv()
	viper.SetEnvPrefix("SWAPWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	applyDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine: defaults plus environment apply.
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := ValidateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// ValidateConfig validates the configuration values
func ValidateConfig(cfg *Config) error {
	if cfg.Service.Name == "" {
		return fmt.Errorf("service.name cannot be empty")
	}
	if cfg.Service.Binary == "" {
		return fmt.Errorf("service.binary cannot be empty")
	}
	if !strings.HasPrefix(cfg.Service.BaseURL, "http://") && !strings.HasPrefix(cfg.Service.BaseURL, "https://") {
		return fmt.Errorf("service.base_url must be an http(s) URL, got %q", cfg.Service.BaseURL)
	}
	if cfg.Service.ProbeTimeout < 100*time.Millisecond || cfg.Service.ProbeTimeout > 30*time.Second {
		return fmt.Errorf("service.probe_timeout must be between 100ms and 30s, got %v", cfg.Service.ProbeTimeout)
	}

	if cfg.History.Capacity < 1 {
		return fmt.Errorf("history.capacity must be >= 1, got %d", cfg.History.Capacity)
	}
	if cfg.History.Retention < time.Second {
		return fmt.Errorf("history.retention must be >= 1s, got %v", cfg.History.Retention)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	validLevel := false
	for _, level := range validLevels {
		if cfg.Logging.Level == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("logging.level must be one of: %v, got %s", validLevels, cfg.Logging.Level)
	}

	if cfg.Storage.Enabled && cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path cannot be empty when storage is enabled")
	}

	return nil
}

// applyDefaults sets default configuration values
func applyDefaults() {
	viper.SetDefault("service.name", "llama-swap")
	viper.SetDefault("service.binary", "llama-swap")
	viper.SetDefault("service.base_url", "http://localhost:8080")
	viper.SetDefault("service.probe_timeout", "1s")

	viper.SetDefault("history.capacity", 300)
	viper.SetDefault("history.retention", "5m")

	viper.SetDefault("storage.enabled", true)
	viper.SetDefault("storage.path", defaultStoragePath())

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.path", "")

	viper.SetDefault("debug", false)
}

func defaultStoragePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.TempDir()
	}
	return filepath.Join(homeDir, ".config", "swapwatch", "history.db")
}
