package subcommands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/hwnotify/internal/config"
)

var validateSecrets bool

// ValidateCmd validates a configuration file.
var ValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate the configuration",
	Long: "Validate the configuration.\n\n" +
		"Checks the configuration file for syntax errors and validates that all " +
		"settings have valid values. Without an argument the active config file is " +
		"checked. With --secrets the three required secrets must also resolve.",
	Example: `  # Validate the active configuration
  hwnotify config validate

  # Validate a specific file and require secrets
  hwnotify config validate ./config.yaml --secrets`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: validateValidate,
	RunE:    runValidate,
}

func init() {
	ValidateCmd.Flags().BoolVar(&validateSecrets, "secrets", false, "Also require practicum and telegram secrets")
}

func validateValidate(cmd *cobra.Command, args []string) error {
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	configPath := config.GetConfigPath()
	if len(args) == 1 {
		configPath = config.ExpandPath(args[0])
	}

	var (
		cfg *config.Config
		err error
	)
	if config.ConfigExistsAt(configPath) {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		if len(args) == 1 {
			return fmt.Errorf("config file %s does not exist", configPath)
		}
		fmt.Fprintf(out, "No configuration file found at %s; checking defaults and environment\n", configPath)
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintln(out, "Configuration validation failed:")
		fmt.Fprintf(out, "  %v\n", err)
		return fmt.Errorf("configuration is invalid")
	}

	if validateSecrets {
		if err := cfg.RequireSecrets(); err != nil {
			fmt.Fprintln(out, "Configuration validation failed:")
			fmt.Fprintf(out, "  %v\n", err)
			return err
		}
	}

	fmt.Fprintf(out, "Configuration is valid: %s\n", configPath)
	return nil
}
