// Package config provides the config parent command and subcommands.
package config

import (
	"github.com/spf13/cobra"

	"github.com/leefowlercu/hwnotify/cmd/config/subcommands"
)

// ConfigCmd is the parent command for all config-related subcommands.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage hwnotify configuration",
	Long: "Manage hwnotify configuration.\n\n" +
		"Configuration is stored in a YAML file located at ~/.config/hwnotify/config.yaml " +
		"by default. Every key can be overridden with an HWNOTIFY_ environment variable; " +
		"the secrets also accept PRACTICUM_TOKEN, TELEGRAM_TOKEN and TELEGRAM_CHAT_ID.",
}

func init() {
	ConfigCmd.AddCommand(subcommands.ShowCmd)
	ConfigCmd.AddCommand(subcommands.ValidateCmd)
	ConfigCmd.AddCommand(subcommands.InitCmd)
}
