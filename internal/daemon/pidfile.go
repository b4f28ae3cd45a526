package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

var (
	// ErrDaemonAlreadyRunning indicates that another daemon process holds the PID file.
	ErrDaemonAlreadyRunning = errors.New("daemon already running")

	// ErrNotRunning indicates there is no PID file or the recorded process is gone.
	ErrNotRunning = errors.New("daemon not running")
)

// PIDFile manages the daemon's process ID file.
type PIDFile struct {
	path string
}

// NewPIDFile creates a PIDFile for path. A leading "~/" is expanded.
func NewPIDFile(path string) *PIDFile {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return &PIDFile{path: path}
}

// Path returns the path to the PID file.
func (p *PIDFile) Path() string {
	return p.path
}

// Write records the current PID via a temp file and rename.
func (p *PIDFile) Write() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("failed to create PID file directory; %w", err)
	}

	tmpPath := p.path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write temporary PID file; %w", err)
	}

	if err := os.Rename(tmpPath, p.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename PID file; %w", err)
	}

	return nil
}

// Read returns the PID stored in the file.
func (p *PIDFile) Read() (int, error) {
	content, err := os.ReadFile(p.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read PID file; %w", err)
	}

	pidStr := strings.TrimSpace(string(content))
	if pidStr == "" {
		return 0, errors.New("empty PID file")
	}

	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file; %w", err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid PID %d; must be positive", pid)
	}

	return pid, nil
}

// Remove deletes the PID file. A missing file is not an error.
func (p *PIDFile) Remove() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file; %w", err)
	}
	return nil
}

// Status reports the recorded PID and whether that process is alive.
// A missing file yields ErrNotRunning; a file naming a dead process yields
// the PID with running=false.
func (p *PIDFile) Status() (pid int, running bool, err error) {
	pid, err = p.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false, ErrNotRunning
		}
		return 0, false, err
	}

	running, err = processAlive(pid)
	if err != nil {
		return pid, false, err
	}
	return pid, running, nil
}

// IsStale reports whether the file names a process that no longer exists.
// A missing file is not stale.
func (p *PIDFile) IsStale() (bool, error) {
	pid, running, err := p.Status()
	if err != nil {
		if errors.Is(err, ErrNotRunning) {
			return false, nil
		}
		return false, fmt.Errorf("PID file exists but unreadable; %w", err)
	}
	return pid > 0 && !running, nil
}

// Signal sends sig to the recorded process.
func (p *PIDFile) Signal(sig syscall.Signal) (int, error) {
	pid, running, err := p.Status()
	if err != nil {
		return 0, err
	}
	if !running {
		return pid, ErrNotRunning
	}
	if err := syscall.Kill(pid, sig); err != nil {
		return pid, fmt.Errorf("failed to signal process %d; %w", pid, err)
	}
	return pid, nil
}

// CheckAndClaim writes the current PID unless a live process already holds
// the file, in which case it returns ErrDaemonAlreadyRunning. Stale files
// are replaced.
func (p *PIDFile) CheckAndClaim() error {
	if _, err := os.Stat(p.path); os.IsNotExist(err) {
		return p.Write()
	}

	stale, err := p.IsStale()
	if err != nil {
		return fmt.Errorf("failed to check if PID file is stale; %w", err)
	}
	if !stale {
		return ErrDaemonAlreadyRunning
	}

	if err := p.Remove(); err != nil {
		return fmt.Errorf("failed to remove stale PID file; %w", err)
	}
	return p.Write()
}

// processAlive probes pid with signal 0. EPERM means the process exists
// under another user.
func processAlive(pid int) (bool, error) {
	err := syscall.Kill(pid, 0)
	switch {
	case err == nil, errors.Is(err, syscall.EPERM):
		return true, nil
	case errors.Is(err, syscall.ESRCH):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check process; %w", err)
	}
}
