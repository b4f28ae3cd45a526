package subcommands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/hwnotify/internal/config"
)

var initForce bool

// InitCmd writes a default configuration file.
var InitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Long: "Write a default configuration file.\n\n" +
		"Creates config.yaml with every setting at its default value. Secrets are left " +
		"empty; supply them through the environment or a .env file. An existing file " +
		"is only replaced with --force.",
	Example: `  # Write ~/.config/hwnotify/config.yaml
  hwnotify config init

  # Overwrite an existing file
  hwnotify config init --force`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: validateInit,
	RunE:    runInit,
}

func init() {
	InitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func validateInit(cmd *cobra.Command, args []string) error {
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultConfigPath()
	if len(args) == 1 {
		path = config.ExpandPath(args[0])
	}

	if config.ConfigExistsAt(path) && !initForce {
		return fmt.Errorf("config file %s already exists; use --force to overwrite", path)
	}

	cfg := config.NewDefaultConfig()
	if err := config.Write(&cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
	return nil
}
