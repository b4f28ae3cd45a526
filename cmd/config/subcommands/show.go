// Package subcommands provides the config subcommands (show, validate, init).
package subcommands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leefowlercu/hwnotify/internal/config"
)

const redactedValue = "********"

var (
	showRaw bool
)

// ShowCmd displays the current configuration.
var ShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the current configuration",
	Long: "Display the current configuration.\n\n" +
		"By default, shows the effective configuration with defaults and environment " +
		"overrides applied. Use --raw to show only the values set in the config file. " +
		"Tokens are always masked.",
	Example: `  # Show effective configuration
  hwnotify config show

  # Show only explicitly set values
  hwnotify config show --raw`,
	PreRunE: validateShow,
	RunE:    runShow,
}

func init() {
	ShowCmd.Flags().BoolVar(&showRaw, "raw", false, "Show only explicitly configured values (no defaults)")
}

func validateShow(cmd *cobra.Command, args []string) error {
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	if showRaw {
		return showRawConfig(cmd)
	}
	return showEffectiveConfig(cmd)
}

func showRawConfig(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	configPath := config.GetConfigPath()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(out, "# No configuration file found")
			fmt.Fprintf(out, "# Default location: %s\n", configPath)
			return nil
		}
		return fmt.Errorf("failed to read config file; %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config file; %w", err)
	}
	redactTokens(raw)

	masked, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to format configuration; %w", err)
	}

	fmt.Fprintf(out, "# Configuration file: %s\n", configPath)
	fmt.Fprint(out, string(masked))
	return nil
}

func showEffectiveConfig(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to format configuration; %w", err)
	}

	fmt.Fprintln(out, "# Effective configuration (with defaults)")
	fmt.Fprintf(out, "# Config file: %s\n", config.GetConfigPath())
	fmt.Fprint(out, string(data))
	return nil
}

// redactTokens masks every "token" key at any depth.
func redactTokens(m map[string]any) {
	for k, v := range m {
		if strings.EqualFold(k, "token") {
			if s, ok := v.(string); ok && s != "" {
				m[k] = redactedValue
			}
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			redactTokens(nested)
		}
	}
}
