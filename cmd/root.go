package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	checkcmd "github.com/leefowlercu/hwnotify/cmd/check"
	configcmd "github.com/leefowlercu/hwnotify/cmd/config"
	daemoncmd "github.com/leefowlercu/hwnotify/cmd/daemon"
	versioncmd "github.com/leefowlercu/hwnotify/cmd/version"
	"github.com/leefowlercu/hwnotify/internal/config"
	"github.com/leefowlercu/hwnotify/internal/logging"
)

// logManager is the global logging manager, created in init() and upgraded after config loads
var logManager *logging.Manager

var envFile string

var hwnotifyCmd = &cobra.Command{
	Use:   "hwnotify",
	Short: "Telegram notifications for homework review status changes",
	Long: "hwnotify polls the homework review API and sends a Telegram message whenever the " +
		"review status of your latest submission changes.\n\n" +
		"Each status change is delivered exactly once. Polling runs on a fixed interval; " +
		"failures are logged and retried on the next cycle.",
	PersistentPreRunE: runInitialize,
}

func init() {
	logManager = logging.NewManager()
	slog.SetDefault(logManager.Logger())

	hwnotifyCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"Dotenv file loaded before configuration; missing files are ignored")

	hwnotifyCmd.AddCommand(daemoncmd.DaemonCmd)
	hwnotifyCmd.AddCommand(checkcmd.CheckCmd)
	hwnotifyCmd.AddCommand(configcmd.ConfigCmd)
	hwnotifyCmd.AddCommand(versioncmd.VersionCmd)
}

func runInitialize(cmd *cobra.Command, args []string) error {
	logger := logManager.Logger()

	// Variables already in the environment win over the dotenv file
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to load env file", "path", envFile, "error", err)
	}

	if err := config.Init(); err != nil {
		return err
	}
	cfg := config.Get()

	level, ok := logging.ParseLevel(cfg.LogLevel)
	if !ok {
		logger.Warn("invalid log level configured, using default", "configured", cfg.LogLevel, "default", "info")
	}

	fileCfg := logging.FileConfig{
		Path:       config.ExpandPath(cfg.LogFile),
		MaxSizeMB:  cfg.LogRotation.MaxSizeMB,
		MaxBackups: cfg.LogRotation.MaxBackups,
		MaxAgeDays: cfg.LogRotation.MaxAgeDays,
		Compress:   cfg.LogRotation.Compress,
	}
	if err := logManager.Upgrade(fileCfg, level); err != nil {
		logger.Warn("failed to enable file logging, continuing with console only", "error", err)
	}

	config.OnReload(func(old, new *config.Config) {
		if old.LogLevel == new.LogLevel {
			return
		}
		logManager.SetLevel(logging.ParseLevelOrDefault(new.LogLevel))
		logger.Info("log level changed", "from", old.LogLevel, "to", new.LogLevel)
	})
	config.Watch()

	return nil
}

// Execute runs the root command. A missing secret exits with code 1 after
// naming every absent key.
func Execute() error {
	hwnotifyCmd.SilenceErrors = true
	hwnotifyCmd.SilenceUsage = true

	defer func() { _ = logManager.Close() }()

	err := hwnotifyCmd.Execute()

	if err != nil {
		cmd, _, _ := hwnotifyCmd.Find(os.Args[1:])
		if cmd == nil {
			cmd = hwnotifyCmd
		}

		if config.IsMissingError(err) {
			logManager.Logger().Error("required configuration missing", "error", err)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if !cmd.SilenceUsage {
			fmt.Fprintln(os.Stderr)
			cmd.SetOut(os.Stderr)
			_ = cmd.Usage()
		}

		return err
	}

	return nil
}
