// Package config loads command-line defaults from a config file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/viper"

	"github.com/simonhull/mediameta/internal/walker"
)

// EnvPrefix prefixes environment overrides, e.g. MEDIAMETA_MAX_DEPTH.
const EnvPrefix = "MEDIAMETA"

// Config holds the settings shared by every command.
type Config struct {
	MaxDepth   int   `mapstructure:"max_depth"`
	MaxPayload int64 `mapstructure:"max_payload"`
	Workers    int   `mapstructure:"workers"`
	Strict     bool  `mapstructure:"strict"`
	Verbose    bool  `mapstructure:"verbose"`
}

// New returns a viper instance with the search paths, defaults and
// environment binding in place. Callers bind their flags to it before
// calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName("mediameta")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.mediameta")
	v.AddConfigPath("/etc/mediameta")

	v.SetDefault("max_depth", walker.DefaultMaxDepth)
	v.SetDefault("max_payload", walker.DefaultMaxPayload)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("strict", false)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, and decodes the merged settings.
// file overrides the search paths when set. A missing config file is not
// an error unless file names it explicitly.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the walker cannot honor.
func (c *Config) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1, got %d", c.MaxDepth)
	}
	if c.MaxPayload < 1 {
		return fmt.Errorf("max_payload must be at least 1, got %d", c.MaxPayload)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}
