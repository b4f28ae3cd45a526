package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable override.
	EnvPrefix = "HWNOTIFY"

	// EnvConfigDir names the variable that overrides the config search path.
	EnvConfigDir = EnvPrefix + "_CONFIG_DIR"

	appDirName = "hwnotify"
)

// envName returns the prefixed environment variable for a config key.
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// configureEnv sets up environment variable support and defaults.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setViperDefaults(v)
	bindLegacyEnv(v)
}

// addSearchPaths registers config directories in priority order:
//  1. Directory specified by HWNOTIFY_CONFIG_DIR environment variable
//  2. ~/.config/hwnotify/
//  3. Current working directory (.)
func addSearchPaths(v *viper.Viper) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if envPath := os.Getenv(EnvConfigDir); envPath != "" {
		v.AddConfigPath(envPath)
	}

	if home := os.Getenv("HOME"); home != "" {
		v.AddConfigPath(filepath.Join(home, ".config", appDirName))
	}

	v.AddConfigPath(".")
}

// Load reads and returns the typed configuration from the search path.
// A missing config file is not an error; defaults and environment apply.
// If a config file exists but is invalid, returns a validation error.
func Load() (*Config, error) {
	v := viper.New()
	configureEnv(v)
	addSearchPaths(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config; %w", err)
		}
	}

	return unmarshalConfig(v)
}

// LoadFromPath reads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(expandHome(path))
	v.SetConfigType("yaml")
	configureEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config from %s; %w", path, err)
	}

	return unmarshalConfig(v)
}

// LoadWithDefaults returns configuration using defaults only.
// Use this in contexts where config file is not required (e.g., config init).
func LoadWithDefaults() *Config {
	cfg := NewDefaultConfig()
	return &cfg
}

// unmarshalConfig converts viper config to typed Config struct.
func unmarshalConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config; %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
