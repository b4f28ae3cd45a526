// Package servicemanager installs the daemon as a systemd user service.
package servicemanager

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrUnsupportedPlatform is returned when systemd user units are unavailable.
var ErrUnsupportedPlatform = errors.New("service installation is only supported on linux with systemd")

// ServiceState represents the installation state of the service.
type ServiceState string

const (
	// ServiceStateEnabled indicates the unit is installed and enabled for auto-start.
	ServiceStateEnabled ServiceState = "enabled"

	// ServiceStateDisabled indicates the unit is installed but not enabled.
	ServiceStateDisabled ServiceState = "disabled"

	// ServiceStateNotInstalled indicates no unit file exists.
	ServiceStateNotInstalled ServiceState = "not-installed"
)

func (s ServiceState) String() string {
	return string(s)
}

// ServiceStatus is the state systemd reports for the unit.
type ServiceStatus struct {
	State   ServiceState `json:"state"`
	Running bool         `json:"running"`
	PID     int          `json:"pid,omitempty"`
}

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// Run executes a command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execExecutor struct{}

func (execExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Supported reports whether the current platform can run systemd user units.
func Supported() bool {
	return runtime.GOOS == "linux"
}

// BinaryPath returns the path of the running hwnotify binary, falling back
// to a PATH lookup.
func BinaryPath() string {
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			return resolved
		}
		return exe
	}
	if path, err := exec.LookPath("hwnotify"); err == nil {
		return path
	}
	return "hwnotify"
}
