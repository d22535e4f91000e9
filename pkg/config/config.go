package config

// Package config provides a reusable loader for this host's
// configuration files and environment variables, built the same way
// the teacher's pkg/config does: viper-backed, environment-overridable,
// versioned so callers can depend on a stable API contract.
//
// Version: v0.1.0

import (
	"fmt"

	"github.com/spf13/viper"

	"wasmhost/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for a simulate/serve run. It
// mirrors the structure of the YAML files under cmd/config.
type Config struct {
	Energy struct {
		InitLimit    uint64 `mapstructure:"init_limit" json:"init_limit"`
		ReceiveLimit uint64 `mapstructure:"receive_limit" json:"receive_limit"`
		PerPage      uint64 `mapstructure:"per_page" json:"per_page"`
	} `mapstructure:"energy" json:"energy"`

	Artifact struct {
		MaxExportNameLen int  `mapstructure:"max_export_name_len" json:"max_export_name_len"`
		MaxStateV0       int  `mapstructure:"max_state_v0" json:"max_state_v0"`
		DefaultVersion   uint8 `mapstructure:"default_version" json:"default_version"`
	} `mapstructure:"artifact" json:"artifact"`

	Storage struct {
		BackingPath string `mapstructure:"backing_path" json:"backing_path"`
		NodeCache   int    `mapstructure:"node_cache" json:"node_cache"`
	} `mapstructure:"storage" json:"storage"`

	Server struct {
		ListenAddr      string  `mapstructure:"listen_addr" json:"listen_addr"`
		RateLimitPerSec float64 `mapstructure:"rate_limit_per_sec" json:"rate_limit_per_sec"`
		RateLimitBurst  int     `mapstructure:"rate_limit_burst" json:"rate_limit_burst"`
	} `mapstructure:"server" json:"server"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and
// returned.
//
// The function uses the provided environment name to merge additional
// config files. If env is empty, only the default configuration is
// loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up from .env

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the WASMHOST_ENV environment
// variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("WASMHOST_ENV", ""))
}
