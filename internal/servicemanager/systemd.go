package servicemanager

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"
)

// ServiceName is the systemd unit name.
const ServiceName = "hwnotify.service"

// Type=notify pairs with the daemon's READY=1 and WATCHDOG=1 notifications.
const unitTemplate = `[Unit]
Description=hwnotify homework review status notifier
Wants=network-online.target
After=network-online.target
StartLimitBurst=5
StartLimitIntervalSec=60

[Service]
Type=notify
NotifyAccess=main
ExecStart={{.ExecStart}}
{{- if .WatchdogSec}}
WatchdogSec={{.WatchdogSec}}
{{- end}}
Restart=on-failure
RestartSec=5
TimeoutStopSec={{.TimeoutStopSec}}

[Install]
WantedBy=default.target
`

// UnitOptions controls the generated unit file.
type UnitOptions struct {
	// BinaryPath is the hwnotify executable. Defaults to BinaryPath().
	BinaryPath string

	// EnvFile is passed to --env-file when set. It must be absolute because
	// systemd starts the service outside the user's working directory.
	EnvFile string

	// Watchdog enables WatchdogSec when positive.
	Watchdog time.Duration

	// StopTimeout bounds graceful shutdown. Defaults to 30s.
	StopTimeout time.Duration
}

// RenderUnit generates the unit file content.
func RenderUnit(opts UnitOptions) (string, error) {
	if opts.BinaryPath == "" {
		opts.BinaryPath = BinaryPath()
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 30 * time.Second
	}
	if opts.EnvFile != "" && !filepath.IsAbs(opts.EnvFile) {
		return "", fmt.Errorf("env file %q must be an absolute path", opts.EnvFile)
	}

	args := []string{quoteArg(opts.BinaryPath), "daemon", "start"}
	if opts.EnvFile != "" {
		args = append(args, "--env-file", quoteArg(opts.EnvFile))
	}

	data := struct {
		ExecStart      string
		WatchdogSec    int
		TimeoutStopSec int
	}{
		ExecStart:      strings.Join(args, " "),
		WatchdogSec:    int(opts.Watchdog.Round(time.Second) / time.Second),
		TimeoutStopSec: int(opts.StopTimeout.Round(time.Second) / time.Second),
	}

	tmpl, err := template.New("unit").Parse(unitTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse unit template; %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute unit template; %w", err)
	}

	return buf.String(), nil
}

func quoteArg(s string) string {
	if strings.ContainsAny(s, " \t\"'\\") {
		return strconv.Quote(s)
	}
	return s
}

// Manager installs and inspects the hwnotify systemd user unit.
type Manager struct {
	executor CommandExecutor
	unitDir  string
}

// Option configures a Manager.
type Option func(*Manager)

// WithExecutor replaces the systemctl command runner.
func WithExecutor(e CommandExecutor) Option {
	return func(m *Manager) {
		m.executor = e
	}
}

// WithUnitDir overrides ~/.config/systemd/user.
func WithUnitDir(dir string) Option {
	return func(m *Manager) {
		m.unitDir = dir
	}
}

// NewManager creates a Manager for the current user.
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{executor: execExecutor{}}
	for _, opt := range opts {
		opt(m)
	}

	if m.unitDir == "" {
		if !Supported() {
			return nil, ErrUnsupportedPlatform
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory; %w", err)
		}
		m.unitDir = filepath.Join(home, ".config", "systemd", "user")
	}

	return m, nil
}

// UnitPath returns the path of the unit file.
func (m *Manager) UnitPath() string {
	return filepath.Join(m.unitDir, ServiceName)
}

// Install writes the unit file, reloads systemd and enables the service.
// The service is not started.
func (m *Manager) Install(ctx context.Context, opts UnitOptions) error {
	content, err := RenderUnit(opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(m.unitDir, 0o755); err != nil {
		return fmt.Errorf("failed to create systemd user directory; %w", err)
	}
	if err := os.WriteFile(m.UnitPath(), []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write unit file; %w", err)
	}

	if err := m.systemctl(ctx, "daemon-reload"); err != nil {
		return fmt.Errorf("failed to reload systemd; %w", err)
	}
	if err := m.systemctl(ctx, "enable", ServiceName); err != nil {
		return fmt.Errorf("failed to enable service; %w", err)
	}

	return nil
}

// Uninstall stops and disables the service and removes the unit file.
func (m *Manager) Uninstall(ctx context.Context) error {
	// stop and disable fail when the unit is already inactive
	_ = m.systemctl(ctx, "stop", ServiceName)
	_ = m.systemctl(ctx, "disable", ServiceName)

	if err := os.Remove(m.UnitPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove unit file; %w", err)
	}

	_ = m.systemctl(ctx, "daemon-reload")
	return nil
}

// IsInstalled reports whether the unit file exists.
func (m *Manager) IsInstalled() (bool, error) {
	_, err := os.Stat(m.UnitPath())
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Status queries systemd for the unit's state.
func (m *Manager) Status(ctx context.Context) (ServiceStatus, error) {
	installed, err := m.IsInstalled()
	if err != nil {
		return ServiceStatus{}, err
	}
	if !installed {
		return ServiceStatus{State: ServiceStateNotInstalled}, nil
	}

	output, err := m.executor.Run(ctx, "systemctl", "--user", "show", ServiceName,
		"--property=ActiveState,MainPID,UnitFileState")
	if err != nil {
		return ServiceStatus{State: ServiceStateDisabled}, nil
	}

	return parseShow(string(output)), nil
}

func (m *Manager) systemctl(ctx context.Context, args ...string) error {
	output, err := m.executor.Run(ctx, "systemctl", append([]string{"--user"}, args...)...)
	if err != nil {
		if msg := strings.TrimSpace(string(output)); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// parseShow parses `systemctl show` key=value output.
func parseShow(output string) ServiceStatus {
	status := ServiceStatus{State: ServiceStateDisabled}

	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}

		switch key {
		case "ActiveState":
			status.Running = value == "active" || value == "activating" || value == "reloading"
		case "MainPID":
			if pid, err := strconv.Atoi(value); err == nil && pid > 0 {
				status.PID = pid
			}
		case "UnitFileState":
			if value == "enabled" || value == "enabled-runtime" {
				status.State = ServiceStateEnabled
			}
		}
	}

	return status
}
