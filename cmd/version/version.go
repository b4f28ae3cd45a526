package version

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/hwnotify/internal/version"
)

var (
	short  bool
	asJSON bool
)

// VersionCmd displays version and build information.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version and build information",
	Long: "Display version and build information.\n\n" +
		"Shows the semantic version, git commit, build date and Go toolchain " +
		"of the current hwnotify binary.",
	Example: `  # Display version information
  hwnotify version

  # Print only the semantic version
  hwnotify version --short

  # Machine-readable output
  hwnotify version --json`,
	PreRunE: validateVersion,
	RunE:    runVersion,
}

func init() {
	VersionCmd.Flags().BoolVar(&short, "short", false, "Print only the semantic version")
	VersionCmd.Flags().BoolVar(&asJSON, "json", false, "Print build information as JSON")
	VersionCmd.MarkFlagsMutuallyExclusive("short", "json")
}

func validateVersion(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	return nil
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := version.Get()
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	if short {
		fmt.Fprintln(cmd.OutOrStdout(), info.Version)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), info.String())
	return nil
}
