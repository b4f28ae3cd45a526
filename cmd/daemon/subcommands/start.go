// Package subcommands provides the daemon subcommands (start, stop, status).
package subcommands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/hwnotify/internal/cmdutil"
	"github.com/leefowlercu/hwnotify/internal/config"
	"github.com/leefowlercu/hwnotify/internal/daemon"
	"github.com/leefowlercu/hwnotify/internal/poller"
)

// StartCmd starts the daemon in foreground mode.
var StartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon in foreground mode",
	Long: "Start the daemon in foreground mode.\n\n" +
		"The daemon runs in the foreground, writing logs to the console and the configured " +
		"log file. The first poll covers the window ending now, so only changes made after " +
		"startup are reported unless --since is given. Use a service manager such as " +
		"systemd to run it in the background; readiness and watchdog notifications are " +
		"sent when NOTIFY_SOCKET is set.",
	Example: `  # Start daemon in foreground
  hwnotify daemon start

  # Report changes from the last day on the first poll
  hwnotify daemon start --since 24h

  # Start daemon with nohup
  nohup hwnotify daemon start &`,
	PreRunE: validateStart,
	RunE:    runStart,
}

var startSince time.Duration

func init() {
	StartCmd.Flags().DurationVar(&startSince, "since", 0, "Look back this far on the first poll")
}

func validateStart(cmd *cobra.Command, args []string) error {
	if startSince < 0 {
		return fmt.Errorf("--since must not be negative")
	}
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runStart(cmd *cobra.Command, args []string) error {
	appCfg := config.Get()
	logger := slog.Default()

	pipeline, err := cmdutil.NewPipeline(appCfg, logger)
	if err != nil {
		return err
	}

	d, loop := buildDaemon(appCfg, pipeline, logger, time.Now().Add(-startSince).Unix())

	// Create context that cancels on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting daemon",
		"http_bind", appCfg.Daemon.HTTPBind,
		"http_port", appCfg.Daemon.HTTPPort,
		"pid_file", config.ExpandPath(appCfg.Daemon.PIDFile),
		"poll_interval", appCfg.Poll.IntervalDuration(),
		"cursor", loop.Snapshot().Cursor,
	)

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("daemon error; %w", err)
	}

	return nil
}

// staleAfter allows three missed cycles, each possibly spending a full
// request timeout, before the poller is reported stale.
func staleAfter(appCfg *config.Config) time.Duration {
	interval := time.Duration(appCfg.Poll.Interval) * time.Second
	return 3 * (interval + appCfg.Practicum.TimeoutDuration())
}

// buildDaemon wires the poll loop into a daemon as a supervised component
// that reports health after every cycle and exposes its counters as metrics.
func buildDaemon(appCfg *config.Config, pipeline *cmdutil.Pipeline, logger *slog.Logger, cursor int64) (*daemon.Daemon, *poller.Loop) {
	cfg := daemon.DaemonConfig{
		HTTPPort:        appCfg.Daemon.HTTPPort,
		HTTPBind:        appCfg.Daemon.HTTPBind,
		ShutdownTimeout: time.Duration(appCfg.Daemon.ShutdownTimeout) * time.Second,
		PIDFile:         config.ExpandPath(appCfg.Daemon.PIDFile),
		MetricsInterval: time.Duration(appCfg.Daemon.Metrics.CollectionInterval) * time.Second,
		StaleAfter:      staleAfter(appCfg),
	}

	d := daemon.NewDaemon(cfg, daemon.WithLogger(logger.With("component", "daemon")))

	loop := pipeline.NewLoop(logger, poller.WithCursor(cursor))
	loop.OnCycle(daemon.PollerHealth(d))

	d.AddComponent(daemon.PollerComponent, loop.Run)
	d.RegisterMetrics(daemon.PollerComponent, loop)

	return d, loop
}
