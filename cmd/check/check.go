// Package check provides the one-shot check command.
package check

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/hwnotify/internal/cmdutil"
	"github.com/leefowlercu/hwnotify/internal/config"
	"github.com/leefowlercu/hwnotify/internal/homework"
	"github.com/leefowlercu/hwnotify/internal/poller"
)

var (
	checkNotify bool
	checkSince  time.Duration
)

// CheckCmd runs a single poll and prints the resulting message.
var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Poll once and print the latest review status",
	Long: "Poll once and print the latest review status.\n\n" +
		"Requests submissions updated within --since, validates the response and prints " +
		"the notification text for the most recent one. Nothing is sent unless --notify " +
		"is given. The daemon's delivered-message state is not touched.",
	Example: `  # Show the status of the latest submission from the last 30 days
  hwnotify check

  # Look back one week and deliver the message to the configured chat
  hwnotify check --since 168h --notify`,
	PreRunE: validateCheck,
	RunE:    runCheck,
}

func init() {
	CheckCmd.Flags().BoolVar(&checkNotify, "notify", false, "Deliver the message to the configured chat")
	CheckCmd.Flags().DurationVar(&checkSince, "since", 30*24*time.Hour, "How far back to look for submissions")
}

func validateCheck(cmd *cobra.Command, args []string) error {
	if checkSince <= 0 {
		return fmt.Errorf("--since must be positive")
	}
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger := slog.Default().With("component", "check")

	pipeline, err := cmdutil.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var notifier poller.Notifier
	if checkNotify {
		notifier = pipeline.Notifier
	}

	cursor := time.Now().Add(-checkSince).Unix()
	return check(ctx, cmd.OutOrStdout(), pipeline.Client, notifier, cfg.Telegram.ChatID, cursor)
}

// check performs one poll, validate and translate pass. A nil notifier
// means print only.
func check(ctx context.Context, out io.Writer, p poller.Poller, n poller.Notifier, destination string, cursor int64) error {
	raw, err := p.Poll(ctx, cursor)
	if err != nil {
		return fmt.Errorf("failed to poll review API (%s); %w", homework.KindOf(err), err)
	}

	res, err := homework.Validate(raw)
	if err != nil {
		return fmt.Errorf("invalid response (%s); %w", homework.KindOf(err), err)
	}

	if next, ok := homework.CurrentDate(raw); ok {
		fmt.Fprintf(out, "current_date: %d\n", next)
	}

	latest, ok := res.Latest()
	if !ok {
		fmt.Fprintf(out, "No submissions updated since %s\n", time.Unix(cursor, 0).UTC().Format(time.RFC3339))
		return nil
	}

	message, err := homework.Translate(latest)
	if err != nil {
		return fmt.Errorf("failed to translate latest submission (%s); %w", homework.KindOf(err), err)
	}
	fmt.Fprintln(out, message)

	if n == nil {
		return nil
	}
	if err := n.Notify(ctx, destination, message); err != nil {
		return fmt.Errorf("failed to deliver message; %w", err)
	}
	fmt.Fprintf(out, "Delivered to %s\n", destination)
	return nil
}
