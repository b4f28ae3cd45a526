package subcommands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/hwnotify/internal/config"
	"github.com/leefowlercu/hwnotify/internal/servicemanager"
)

// InstallCmd installs the daemon as a systemd user service.
var InstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the daemon as a systemd user service",
	Long: "Install the daemon as a systemd user service.\n\n" +
		"Writes ~/.config/systemd/user/hwnotify.service, reloads systemd and enables the " +
		"unit. The unit uses Type=notify so systemd waits for the daemon to report ready. " +
		"Start it with 'systemctl --user start hwnotify'.",
	Example: `  # Install using ./.env for secrets
  hwnotify daemon install

  # Preview the unit without installing it
  hwnotify daemon install --print

  # Use a specific env file and a 5 minute watchdog
  hwnotify daemon install --env-file ~/.config/hwnotify/.env --watchdog 5m`,
	PreRunE: validateInstall,
	RunE:    runInstall,
}

// UninstallCmd removes the systemd user service.
var UninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the systemd user service",
	Example: `  hwnotify daemon uninstall`,
	PreRunE: validateInstall,
	RunE:    runUninstall,
}

var (
	installEnvFile  string
	installWatchdog time.Duration
	installPrint    bool
)

func init() {
	InstallCmd.Flags().StringVar(&installEnvFile, "env-file", ".env", "Env file passed to the service; skipped when it does not exist")
	InstallCmd.Flags().DurationVar(&installWatchdog, "watchdog", 0, "systemd watchdog timeout; defaults to three poll intervals, 0s disables it")
	InstallCmd.Flags().BoolVar(&installPrint, "print", false, "Print the unit file instead of installing it")
}

func validateInstall(cmd *cobra.Command, args []string) error {
	if installWatchdog < 0 {
		return fmt.Errorf("--watchdog must not be negative")
	}
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runInstall(cmd *cobra.Command, args []string) error {
	opts, err := unitOptions(cmd, config.Get())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if installPrint {
		unit, err := servicemanager.RenderUnit(opts)
		if err != nil {
			return err
		}
		fmt.Fprint(out, unit)
		return nil
	}

	manager, err := servicemanager.NewManager()
	if err != nil {
		return err
	}
	if err := manager.Install(cmd.Context(), opts); err != nil {
		return fmt.Errorf("failed to install service; %w", err)
	}

	fmt.Fprintf(out, "Installed %s\n", manager.UnitPath())
	fmt.Fprintln(out, "Start it with: systemctl --user start hwnotify")
	return nil
}

func runUninstall(cmd *cobra.Command, args []string) error {
	manager, err := servicemanager.NewManager()
	if err != nil {
		return err
	}
	if err := manager.Uninstall(cmd.Context()); err != nil {
		return fmt.Errorf("failed to uninstall service; %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Service removed")
	return nil
}

// unitOptions derives the unit settings from flags and configuration.
func unitOptions(cmd *cobra.Command, cfg *config.Config) (servicemanager.UnitOptions, error) {
	opts := servicemanager.UnitOptions{
		StopTimeout: time.Duration(cfg.Daemon.ShutdownTimeout)*time.Second + 5*time.Second,
		Watchdog:    installWatchdog,
	}

	if !cmd.Flags().Changed("watchdog") {
		opts.Watchdog = 3 * cfg.Poll.IntervalDuration()
	}

	if installEnvFile != "" {
		path, err := filepath.Abs(config.ExpandPath(installEnvFile))
		if err != nil {
			return opts, fmt.Errorf("failed to resolve env file; %w", err)
		}
		if _, err := os.Stat(path); err == nil {
			opts.EnvFile = path
		} else if cmd.Flags().Changed("env-file") {
			return opts, fmt.Errorf("env file %s not found", path)
		}
	}

	return opts, nil
}
