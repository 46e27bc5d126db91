// Package config handles configuration loading and management for Pandu.
// It supports XDG config paths, project-level overrides, and environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/pandulabs/pandu/pkg/models"
)

// Config holds all configuration for Pandu.
type Config struct {
	Anthropic    AnthropicConfig      `mapstructure:"anthropic"`
	Workers      []models.WorkerConfig `mapstructure:"workers"`
	Pool         PoolConfig           `mapstructure:"pool"`
	Orchestrator OrchestratorConfig   `mapstructure:"orchestrator"`
	Retrieval    RetrievalConfig      `mapstructure:"retrieval"`
	Server       ServerConfig         `mapstructure:"server"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// PoolConfig holds worker pool settings.
type PoolConfig struct {
	// AcquireTimeout bounds how long a request waits for a free worker.
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
}

// OrchestratorConfig holds agentic orchestrator settings.
type OrchestratorConfig struct {
	// MaxHops is the per-node attempt budget before the category fallback.
	MaxHops int `mapstructure:"max_hops"`
	// Parallelism above 1 executes ready sub-queries concurrently.
	Parallelism int `mapstructure:"parallelism"`
	// TopK is the retrieval depth per information-seeking sub-query.
	TopK int `mapstructure:"top_k"`
}

// RetrievalConfig holds document store settings.
type RetrievalConfig struct {
	// DBPath is the sqlite document store location.
	DBPath string `mapstructure:"db_path"`
	// Collections optionally restricts queries to collection prefixes.
	Collections []string `mapstructure:"collections"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `mapstructure:"addr"`
	// ControlDir is watched for drain/resume control files.
	ControlDir string `mapstructure:"control_dir"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables. Precedence (highest to lowest):
// 1. Environment variables (PANDU_*, ANTHROPIC_API_KEY)
// 2. Project config (.pandu.yaml in current directory or parent)
// 3. User config (~/.config/pandu/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("PANDU")
	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("server.addr", "PANDU_SERVER_ADDR")
	v.BindEnv("retrieval.db_path", "PANDU_RETRIEVAL_DB_PATH")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")

	v.SetDefault("pool.acquire_timeout", "30s")

	v.SetDefault("orchestrator.max_hops", 3)
	v.SetDefault("orchestrator.parallelism", 1)
	v.SetDefault("orchestrator.top_k", 3)

	v.SetDefault("retrieval.db_path", defaultDBPath())
	v.SetDefault("retrieval.collections", []string{})

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.control_dir", "")
}

func defaultDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "pandu", "documents.db")
}

// getUserConfigDir returns the XDG config directory for Pandu.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "pandu")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "pandu")
	}
	return filepath.Join(home, ".config", "pandu")
}

// findProjectConfig searches for .pandu.yaml in the current directory and
// parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		configPath := filepath.Join(cwd, ".pandu.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}
	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Pool: PoolConfig{AcquireTimeout: 30 * time.Second},
		Orchestrator: OrchestratorConfig{
			MaxHops:     3,
			Parallelism: 1,
			TopK:        3,
		},
		Retrieval: RetrievalConfig{DBPath: defaultDBPath()},
		Server:    ServerConfig{Addr: ":8080"},
	}
}
