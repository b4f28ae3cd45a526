// Package testutil provides testing utilities for isolated test environments.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leefowlercu/hwnotify/internal/config"
)

// secretEnv lists every variable that can carry a secret, prefixed and legacy.
var secretEnv = []string{
	"HWNOTIFY_PRACTICUM_TOKEN", "PRACTICUM_TOKEN",
	"HWNOTIFY_TELEGRAM_TOKEN", "TELEGRAM_TOKEN",
	"HWNOTIFY_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID",
}

// TestEnv provides an isolated test environment with its own config directory.
type TestEnv struct {
	t         *testing.T
	ConfigDir string
}

// NewTestEnv creates an isolated test environment.
// Paths are redirected through environment variables and every secret
// variable is cleared, so the developer's real credentials never leak in.
// Cleanup is automatic via t.Cleanup.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	root := t.TempDir()
	configDir := filepath.Join(root, "config")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		t.Fatalf("failed to create test config dir: %v", err)
	}

	// HOME is redirected too so a developer's ~/.config/hwnotify is never read
	t.Setenv("HOME", filepath.Join(root, "home"))
	t.Setenv(config.EnvConfigDir, configDir)
	t.Setenv("HWNOTIFY_LOG_FILE", filepath.Join(configDir, "hwnotify.log"))
	t.Setenv("HWNOTIFY_DAEMON_PID_FILE", filepath.Join(configDir, "daemon.pid"))
	for _, name := range secretEnv {
		t.Setenv(name, "")
	}

	env := &TestEnv{
		t:         t,
		ConfigDir: configDir,
	}
	env.reinit()

	t.Cleanup(func() {
		config.Reset()
	})

	return env
}

// ConfigPath returns the config file location inside the environment.
func (e *TestEnv) ConfigPath() string {
	return filepath.Join(e.ConfigDir, "config.yaml")
}

// PIDFile returns the daemon PID file location inside the environment.
func (e *TestEnv) PIDFile() string {
	return filepath.Join(e.ConfigDir, "daemon.pid")
}

// WriteConfig writes content as config.yaml and reloads configuration.
func (e *TestEnv) WriteConfig(content string) {
	e.t.Helper()

	if err := os.WriteFile(e.ConfigPath(), []byte(content), 0o600); err != nil {
		e.t.Fatalf("failed to write test config: %v", err)
	}
	e.reinit()
}

// SetSecrets supplies the three required secrets through the legacy variable
// names and reloads configuration.
func (e *TestEnv) SetSecrets(practicumToken, telegramToken, chatID string) {
	e.t.Helper()

	e.t.Setenv("PRACTICUM_TOKEN", practicumToken)
	e.t.Setenv("TELEGRAM_TOKEN", telegramToken)
	e.t.Setenv("TELEGRAM_CHAT_ID", chatID)
	e.reinit()
}

func (e *TestEnv) reinit() {
	e.t.Helper()

	config.Reset()
	if err := config.Init(); err != nil {
		e.t.Fatalf("failed to initialize test config: %v", err)
	}
}
