package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	// stateMu protects configFilePath and current
	stateMu sync.RWMutex

	// configFilePath stores the path to the loaded config file
	configFilePath string

	// current is the typed configuration built by the last Init or Reload
	current *Config

	// watchOnce guards viper.WatchConfig, which must only be started once per viper instance
	watchOnce = &sync.Once{}
)

// Init initializes the process-wide configuration.
// It searches for configuration files in priority order:
//  1. Directory specified by HWNOTIFY_CONFIG_DIR environment variable
//  2. ~/.config/hwnotify/
//  3. Current working directory (.)
//
// If no config file is found, defaults and environment variables are used.
// If a config file exists but is invalid or unreadable, Init returns an error.
func Init() error {
	v := viper.GetViper()
	configureEnv(v)
	addSearchPaths(v)

	path := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config; %w", err)
		}
	} else {
		path = v.ConfigFileUsed()
	}

	cfg, err := unmarshalConfig(v)
	if err != nil {
		return err
	}

	stateMu.Lock()
	configFilePath = path
	current = cfg
	stateMu.Unlock()

	slog.Info("config initialized", "file", path)

	SetupSignalHandler()

	return nil
}

// Get returns the current typed configuration, or nil before Init.
// The returned value must be treated as read-only.
func Get() *Config {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return current
}

// MustGet returns the current configuration and panics before Init.
func MustGet() *Config {
	cfg := Get()
	if cfg == nil {
		panic("config: MustGet called before Init")
	}
	return cfg
}

// ConfigFilePath returns the path to the loaded config file,
// or empty string if using defaults only.
func ConfigFilePath() string {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return configFilePath
}

// Reset clears the configuration state for testing purposes.
func Reset() {
	StopSignalHandler()
	viper.Reset()
	clearReloadCallbacks()

	stateMu.Lock()
	configFilePath = ""
	current = nil
	watchOnce = &sync.Once{}
	stateMu.Unlock()
}

// ExpandPath expands a leading ~ in path to the user's home directory.
func ExpandPath(path string) string {
	return expandHome(path)
}

// expandHome expands a leading ~ in path to the user's home directory.
// Only expands "~" alone or "~/..." patterns. Patterns like "~user" are not expanded.
// Returns the path unchanged if it doesn't start with ~/ or if home dir cannot be determined.
func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	if len(path) > 1 && path[1] != '/' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if len(path) == 1 {
		return home
	}

	return filepath.Join(home, path[2:])
}

// GetConfigPath returns the path where the config file should be located.
// If a config file is loaded, returns its path. Otherwise returns the default path.
func GetConfigPath() string {
	if path := ConfigFilePath(); path != "" {
		return path
	}
	return DefaultConfigPath()
}

// Reload re-reads the configuration from disk.
// On failure, the previous configuration is retained.
func Reload() error {
	v := viper.GetViper()

	if err := v.ReadInConfig(); err != nil {
		slog.Error("config reload failed; retaining previous values", "error", err)
		return fmt.Errorf("failed to reload config; %w", err)
	}

	return apply(v)
}

// apply rebuilds the typed config from v and notifies reload callbacks.
func apply(v *viper.Viper) error {
	cfg, err := unmarshalConfig(v)
	if err != nil {
		slog.Error("config reload failed; retaining previous values", "error", err)
		return fmt.Errorf("failed to reload config; %w", err)
	}

	stateMu.Lock()
	old := current
	current = cfg
	stateMu.Unlock()

	slog.Info("config reloaded", "file", v.ConfigFileUsed())

	if old != nil {
		notifyReload(old, cfg)
	}
	return nil
}

// Watch reloads the configuration whenever the loaded config file changes.
// It is a no-op when no config file was found.
func Watch() {
	if ConfigFilePath() == "" {
		return
	}

	stateMu.RLock()
	once := watchOnce
	stateMu.RUnlock()

	once.Do(func() {
		v := viper.GetViper()
		v.OnConfigChange(func(e fsnotify.Event) {
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
				return
			}
			slog.Debug("config file event", "file", e.Name, "op", e.Op.String())
			_ = guardedReload("file_watch", func() error { return apply(v) })
		})
		v.WatchConfig()
	})
}
