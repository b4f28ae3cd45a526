package servicemanager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type mockExecutor struct {
	calls   []string
	outputs map[string]string
	errors  map[string]error
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{outputs: map[string]string{}, errors: map[string]error{}}
}

func (m *mockExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := name + " " + strings.Join(args, " ")
	m.calls = append(m.calls, cmd)
	return []byte(m.outputs[cmd]), m.errors[cmd]
}

func newTestManager(t *testing.T) (*Manager, *mockExecutor) {
	t.Helper()
	mock := newMockExecutor()
	m, err := NewManager(WithExecutor(mock), WithUnitDir(filepath.Join(t.TempDir(), "systemd", "user")))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m, mock
}

func TestRenderUnit(t *testing.T) {
	unit, err := RenderUnit(UnitOptions{
		BinaryPath:  "/usr/local/bin/hwnotify",
		EnvFile:     "/home/student/.config/hwnotify/.env",
		Watchdog:    90 * time.Second,
		StopTimeout: 45 * time.Second,
	})
	if err != nil {
		t.Fatalf("RenderUnit() error = %v", err)
	}

	for _, want := range []string{
		"[Unit]",
		"After=network-online.target",
		"[Service]",
		"Type=notify",
		"ExecStart=/usr/local/bin/hwnotify daemon start --env-file /home/student/.config/hwnotify/.env\n",
		"WatchdogSec=90\n",
		"TimeoutStopSec=45\n",
		"Restart=on-failure",
		"WantedBy=default.target",
	} {
		if !strings.Contains(unit, want) {
			t.Errorf("RenderUnit() missing %q in:\n%s", want, unit)
		}
	}
}

func TestRenderUnit_Defaults(t *testing.T) {
	unit, err := RenderUnit(UnitOptions{BinaryPath: "/opt/hw notify/hwnotify"})
	if err != nil {
		t.Fatalf("RenderUnit() error = %v", err)
	}

	if strings.Contains(unit, "WatchdogSec") {
		t.Error("WatchdogSec should be omitted when the watchdog is disabled")
	}
	if strings.Contains(unit, "--env-file") {
		t.Error("--env-file should be omitted when no env file is given")
	}
	if !strings.Contains(unit, `ExecStart="/opt/hw notify/hwnotify" daemon start`) {
		t.Errorf("paths with spaces should be quoted:\n%s", unit)
	}
	if !strings.Contains(unit, "TimeoutStopSec=30") {
		t.Error("stop timeout should default to 30s")
	}
}

func TestRenderUnit_RelativeEnvFile(t *testing.T) {
	if _, err := RenderUnit(UnitOptions{BinaryPath: "/bin/hwnotify", EnvFile: ".env"}); err == nil {
		t.Error("RenderUnit() should reject a relative env file")
	}
}

func TestManager_Install(t *testing.T) {
	m, mock := newTestManager(t)

	if err := m.Install(context.Background(), UnitOptions{BinaryPath: "/bin/hwnotify"}); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	content, err := os.ReadFile(m.UnitPath())
	if err != nil {
		t.Fatalf("unit file not written: %v", err)
	}
	if !strings.Contains(string(content), "ExecStart=/bin/hwnotify daemon start") {
		t.Errorf("unexpected unit content:\n%s", content)
	}

	want := []string{
		"systemctl --user daemon-reload",
		"systemctl --user enable hwnotify.service",
	}
	if strings.Join(mock.calls, "|") != strings.Join(want, "|") {
		t.Errorf("calls = %v, want %v", mock.calls, want)
	}

	installed, err := m.IsInstalled()
	if err != nil || !installed {
		t.Errorf("IsInstalled() = %v, %v; want true", installed, err)
	}
}

func TestManager_Install_EnableFails(t *testing.T) {
	m, mock := newTestManager(t)
	mock.errors["systemctl --user enable hwnotify.service"] = errors.New("exit status 1")
	mock.outputs["systemctl --user enable hwnotify.service"] = "Failed to connect to bus"

	err := m.Install(context.Background(), UnitOptions{BinaryPath: "/bin/hwnotify"})
	if err == nil {
		t.Fatal("Install() expected error")
	}
	if !strings.Contains(err.Error(), "Failed to connect to bus") {
		t.Errorf("error should carry systemctl output, got %v", err)
	}
}

func TestManager_Uninstall(t *testing.T) {
	m, mock := newTestManager(t)
	if err := m.Install(context.Background(), UnitOptions{BinaryPath: "/bin/hwnotify"}); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	mock.calls = nil
	mock.errors["systemctl --user stop hwnotify.service"] = errors.New("not loaded")

	if err := m.Uninstall(context.Background()); err != nil {
		t.Fatalf("Uninstall() error = %v", err)
	}

	if _, err := os.Stat(m.UnitPath()); !os.IsNotExist(err) {
		t.Error("unit file should be removed")
	}
	if len(mock.calls) != 3 || mock.calls[2] != "systemctl --user daemon-reload" {
		t.Errorf("calls = %v", mock.calls)
	}

	// Uninstalling twice is not an error
	if err := m.Uninstall(context.Background()); err != nil {
		t.Errorf("second Uninstall() error = %v", err)
	}
}

func TestManager_Status(t *testing.T) {
	m, mock := newTestManager(t)

	status, err := m.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.State != ServiceStateNotInstalled {
		t.Errorf("State = %v, want not-installed", status.State)
	}

	if err := m.Install(context.Background(), UnitOptions{BinaryPath: "/bin/hwnotify"}); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	mock.outputs["systemctl --user show hwnotify.service --property=ActiveState,MainPID,UnitFileState"] =
		"ActiveState=active\nMainPID=4242\nUnitFileState=enabled\n"

	status, err = m.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status != (ServiceStatus{State: ServiceStateEnabled, Running: true, PID: 4242}) {
		t.Errorf("Status() = %+v", status)
	}
}

func TestParseShow(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   ServiceStatus
	}{
		{
			name:   "inactive disabled",
			output: "ActiveState=inactive\nMainPID=0\nUnitFileState=disabled",
			want:   ServiceStatus{State: ServiceStateDisabled},
		},
		{
			name:   "activating",
			output: "ActiveState=activating\nMainPID=17\nUnitFileState=enabled-runtime",
			want:   ServiceStatus{State: ServiceStateEnabled, Running: true, PID: 17},
		},
		{
			name:   "garbage",
			output: "not key value\n",
			want:   ServiceStatus{State: ServiceStateDisabled},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseShow(tt.output); got != tt.want {
				t.Errorf("parseShow() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
