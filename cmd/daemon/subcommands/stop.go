package subcommands

import (
	"errors"
	"fmt"
	"log/slog"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/hwnotify/internal/config"
	"github.com/leefowlercu/hwnotify/internal/daemon"
)

// Errors for stop command
var (
	ErrNoDaemonRunning = errors.New("no daemon running")
	ErrStalePIDFile    = errors.New("stale PID file found and cleaned up")
	ErrStopTimeout     = errors.New("daemon did not stop before the timeout")
)

// StopCmd stops a running daemon.
var StopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon gracefully",
	Long: "Stop the running daemon gracefully.\n\n" +
		"Sends SIGTERM to the process recorded in the PID file and waits for it to exit. " +
		"A poll cycle that is in flight is allowed to finish its delivery before the " +
		"daemon shuts down.",
	Example: `  # Stop the daemon
  hwnotify daemon stop

  # Wait up to two minutes
  hwnotify daemon stop --timeout 2m`,
	PreRunE: validateStop,
	RunE:    runStop,
}

var (
	stopTimeout time.Duration
)

func init() {
	StopCmd.Flags().DurationVar(&stopTimeout, "timeout", 30*time.Second,
		"Maximum time to wait for daemon to stop")
}

func validateStop(cmd *cobra.Command, args []string) error {
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	pidFile := daemon.NewPIDFile(config.ExpandPath(config.Get().Daemon.PIDFile))
	out := cmd.OutOrStdout()

	if err := stopDaemon(pidFile, stopTimeout); err != nil {
		if errors.Is(err, ErrNoDaemonRunning) {
			fmt.Fprintln(out, "No daemon is running")
			return nil
		}
		if errors.Is(err, ErrStalePIDFile) {
			fmt.Fprintln(out, "Found stale PID file, cleaned up")
			return nil
		}
		return fmt.Errorf("failed to stop daemon; %w", err)
	}

	fmt.Fprintln(out, "Daemon stopped")
	return nil
}

// stopDaemon sends SIGTERM to the recorded process and waits for it to exit.
func stopDaemon(pidFile *daemon.PIDFile, timeout time.Duration) error {
	pid, err := pidFile.Signal(syscall.SIGTERM)
	if err != nil {
		if !errors.Is(err, daemon.ErrNotRunning) {
			return err
		}
		if pid == 0 {
			return ErrNoDaemonRunning
		}
		if err := pidFile.Remove(); err != nil {
			return fmt.Errorf("failed to remove stale PID file; %w", err)
		}
		return ErrStalePIDFile
	}

	slog.Debug("sent SIGTERM to daemon", "pid", pid)

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		_, running, err := pidFile.Status()
		if errors.Is(err, daemon.ErrNotRunning) || (err == nil && !running) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	slog.Warn("daemon did not stop within timeout", "pid", pid, "timeout", timeout)
	return fmt.Errorf("%w (pid %d, waited %s)", ErrStopTimeout, pid, timeout)
}
