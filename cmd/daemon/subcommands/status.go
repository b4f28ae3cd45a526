package subcommands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/hwnotify/internal/config"
	"github.com/leefowlercu/hwnotify/internal/daemon"
	"github.com/leefowlercu/hwnotify/internal/daemonclient"
)

// DaemonStatus holds the status information about the daemon.
type DaemonStatus struct {
	Running      bool                 `json:"running"`
	PID          int                  `json:"pid,omitempty"`
	StalePIDFile bool                 `json:"stale_pid_file,omitempty"`
	Health       *daemon.HealthStatus `json:"health,omitempty"`
	HealthError  string               `json:"health_error,omitempty"`
}

// StatusCmd shows the daemon status.
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status and poller health",
	Long: "Show daemon status and poller health.\n\n" +
		"Displays whether the daemon is running, its PID, and the health reported by " +
		"its readiness endpoint, including the outcome and cursor of the last poll cycle.",
	Example: `  # Check daemon status
  hwnotify daemon status

  # Machine-readable output
  hwnotify daemon status --json`,
	PreRunE: validateStatus,
	RunE:    runStatus,
}

var statusJSON bool

func init() {
	StatusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print status as JSON")
}

func validateStatus(cmd *cobra.Command, args []string) error {
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	pidFile := daemon.NewPIDFile(config.ExpandPath(cfg.Daemon.PIDFile))

	client, err := daemonclient.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize daemon client; %w", err)
	}

	status, err := getDaemonStatus(cmd.Context(), pidFile, client)
	if err != nil {
		return fmt.Errorf("failed to get daemon status; %w", err)
	}

	out := cmd.OutOrStdout()
	if statusJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	fmt.Fprintln(out, formatStatus(status))
	return nil
}

// getDaemonStatus combines the PID file with the daemon's readiness report.
func getDaemonStatus(ctx context.Context, pidFile *daemon.PIDFile, client *daemonclient.Client) (*DaemonStatus, error) {
	status := &DaemonStatus{}

	pid, running, err := pidFile.Status()
	if err != nil {
		if errors.Is(err, daemon.ErrNotRunning) {
			return status, nil
		}
		return nil, fmt.Errorf("failed to read PID file; %w", err)
	}

	status.PID = pid
	if !running {
		status.StalePIDFile = true
		return status, nil
	}
	status.Running = true

	if ctx == nil {
		ctx = context.Background()
	}
	health, err := client.Ready(ctx)
	if err != nil {
		status.HealthError = err.Error()
		return status, nil
	}
	status.Health = health

	return status, nil
}

// formatStatus formats the daemon status for display.
func formatStatus(status *DaemonStatus) string {
	var sb strings.Builder

	if !status.Running {
		sb.WriteString("Daemon: not running")
		if status.StalePIDFile {
			sb.WriteString(fmt.Sprintf(" (stale PID file with PID %d)", status.PID))
		}
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Daemon: running (PID %d)", status.PID))

	if status.HealthError != "" {
		sb.WriteString(fmt.Sprintf("\nHealth: unavailable (%s)", status.HealthError))
		return sb.String()
	}
	if status.Health == nil {
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("\nHealth: %s", status.Health.Status))
	sb.WriteString(fmt.Sprintf("\nReady: %v", status.Health.Ready))
	if status.Health.Uptime > 0 {
		sb.WriteString(fmt.Sprintf("\nUptime: %s", status.Health.Uptime.Round(time.Second)))
	}

	if len(status.Health.Components) == 0 {
		return sb.String()
	}

	names := make([]string, 0, len(status.Health.Components))
	for name := range status.Health.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString("\nComponents:")
	for _, name := range names {
		health := status.Health.Components[name]
		sb.WriteString(fmt.Sprintf("\n  - %s: %s", name, health.Status))
		if health.Stale {
			sb.WriteString(" [stale]")
		}
		if health.Error != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", health.Error))
		}
		for _, key := range []string{"outcome", "kind", "cursor"} {
			if v, ok := health.Details[key]; ok {
				sb.WriteString(fmt.Sprintf("\n      %s: %v", key, v))
			}
		}
		if !health.LastSuccess.IsZero() {
			sb.WriteString(fmt.Sprintf("\n      last success: %s", health.LastSuccess.Format("2006-01-02 15:04:05 MST")))
		}
	}

	return sb.String()
}
