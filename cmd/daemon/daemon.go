// Package daemon provides the daemon parent command and subcommands.
package daemon

import (
	"github.com/leefowlercu/hwnotify/cmd/daemon/subcommands"
	"github.com/spf13/cobra"
)

// DaemonCmd is the parent command for all daemon-related subcommands.
var DaemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the hwnotify daemon",
	Long: "Manage the hwnotify daemon.\n\n" +
		"The daemon polls the review API on a fixed interval and sends a Telegram " +
		"message whenever the status of the latest submission changes. It exposes " +
		"health and metrics endpoints for monitoring.",
}

func init() {
	DaemonCmd.AddCommand(subcommands.StartCmd)
	DaemonCmd.AddCommand(subcommands.StopCmd)
	DaemonCmd.AddCommand(subcommands.StatusCmd)
	DaemonCmd.AddCommand(subcommands.InstallCmd)
	DaemonCmd.AddCommand(subcommands.UninstallCmd)
}
