package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig describes the rotated JSON log file.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Manager handles logger lifecycle including bootstrap-to-full mode transitions.
// Components should obtain a logger via Logger() and use it for all logging.
type Manager struct {
	handler *SwappableHandler
	logger  *slog.Logger
	console io.Writer
	sink    *lumberjack.Logger
	level   *slog.LevelVar
	mu      sync.Mutex
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithConsole sets the console writer. Defaults to stdout.
func WithConsole(w io.Writer) ManagerOption {
	return func(m *Manager) {
		m.console = w
	}
}

// NewManager creates a logging manager in bootstrap mode.
// Bootstrap mode writes only to the console using text format.
// Call Upgrade() after config is available to enable file logging.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		console: os.Stdout,
		level:   new(slog.LevelVar),
	}
	m.level.Set(DefaultLevel)

	for _, opt := range opts {
		opt(m)
	}

	m.handler = NewSwappableHandler(slog.NewTextHandler(m.console, m.handlerOptions()))
	m.logger = slog.New(m.handler)

	return m
}

// Logger returns the current logger instance.
// The returned logger is stable across Upgrade calls.
func (m *Manager) Logger() *slog.Logger {
	return m.logger
}

// Upgrade transitions from bootstrap mode (console only) to full mode
// (console text + rotated file JSON). Call after config subsystem is initialized.
// Returns error if the log file cannot be created or opened for append.
func (m *Manager) Upgrade(file FileConfig, level slog.Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir := filepath.Dir(file.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory %q; %w", dir, err)
	}

	// lumberjack opens lazily, so probe the path to fail here instead of on first write
	probe, err := os.OpenFile(file.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %q; %w", file.Path, err)
	}
	_ = probe.Close()

	sink := &lumberjack.Logger{
		Filename:   file.Path,
		MaxSize:    file.MaxSizeMB,
		MaxBackups: file.MaxBackups,
		MaxAge:     file.MaxAgeDays,
		Compress:   file.Compress,
	}

	m.level.Set(level)
	opts := m.handlerOptions()

	m.handler.Swap(slogmulti.Fanout(
		slog.NewTextHandler(m.console, opts),
		slog.NewJSONHandler(sink, opts),
	))

	if m.sink != nil {
		_ = m.sink.Close()
	}
	m.sink = sink

	return nil
}

// SetLevel changes the log level at runtime.
// Applies immediately to all future log calls.
func (m *Manager) SetLevel(level slog.Level) {
	m.level.Set(level)
}

// Level returns the current log level.
func (m *Manager) Level() slog.Level {
	return m.level.Level()
}

// Close cleanly shuts down the logger, closing any open file handles.
// Should be called during application shutdown.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sink != nil {
		err := m.sink.Close()
		m.sink = nil
		return err
	}
	return nil
}

func (m *Manager) handlerOptions() *slog.HandlerOptions {
	return &slog.HandlerOptions{Level: m.level, ReplaceAttr: redactSecrets}
}

// secretKeys are attribute keys whose values never reach a sink.
var secretKeys = map[string]bool{
	"token":         true,
	"authorization": true,
	"password":      true,
}

func redactSecrets(groups []string, a slog.Attr) slog.Attr {
	if secretKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "[redacted]")
	}
	return a
}
