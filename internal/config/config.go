package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Repo  string      `yaml:"repo"`
	Mount MountConfig `yaml:"mount"`
	Log   LogConfig   `yaml:"log"`
	Cache CacheConfig `yaml:"cache"`
}

type MountConfig struct {
	DefaultPath string `yaml:"default_path"`
	AllowOther  bool   `yaml:"allow_other"`
	StateFile   string `yaml:"state_file"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			TTL:        time.Second,
			MaxEntries: 4096,
		},
		Mount: MountConfig{
			DefaultPath: "",
			AllowOther:  false,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "color",
		},
	}
}

// Load loads configuration using the real environment.
func Load() (*Config, error) {
	return LoadWithEnv(os.Getenv)
}

// LoadWithEnv loads configuration using the provided environment lookup function.
// This allows tests to provide isolated environment values.
func LoadWithEnv(getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	// Try to load from config file
	configPath := getConfigPathWithEnv(getenv)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Environment variables override config file
	if repo := getenv("GITREEFS_REPO"); repo != "" {
		cfg.Repo = repo
	}

	return cfg, nil
}

func getConfigPath() string {
	return getConfigPathWithEnv(os.Getenv)
}

func getConfigPathWithEnv(getenv func(string) string) string {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "gitreefs", "config.yaml")
	}

	// Fall back to ~/.config
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "gitreefs", "config.yaml")
}
