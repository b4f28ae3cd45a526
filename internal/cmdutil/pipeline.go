// Package cmdutil assembles the poll pipeline from configuration for the
// commands that need it.
package cmdutil

import (
	"fmt"
	"log/slog"

	"github.com/leefowlercu/hwnotify/internal/config"
	"github.com/leefowlercu/hwnotify/internal/notify"
	"github.com/leefowlercu/hwnotify/internal/poller"
	"github.com/leefowlercu/hwnotify/internal/practicum"
)

// Pipeline holds the collaborators of one poll cycle.
type Pipeline struct {
	Client   *practicum.Client
	Notifier *notify.Notifier
	Loop     poller.Config
}

// NewPipeline validates secrets and builds the review API client and the
// Telegram notifier. A missing secret yields *config.MissingError.
func NewPipeline(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	if err := cfg.RequireSecrets(); err != nil {
		return nil, err
	}

	client := practicum.NewClient(cfg.Practicum.Token,
		practicum.WithEndpoint(cfg.Practicum.Endpoint),
		practicum.WithTimeout(cfg.Practicum.TimeoutDuration()),
	)

	var senderOpts []notify.TelegramOption
	if cfg.Telegram.APIServer != "" {
		senderOpts = append(senderOpts, notify.WithAPIServer(cfg.Telegram.APIServer))
	}
	sender, err := notify.NewTelegramSender(cfg.Telegram.Token, senderOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram sender; %w", err)
	}

	notifier := notify.New(sender,
		notify.WithLogger(logger.With("component", "notify")),
		notify.WithRateLimit(notify.RateLimitConfig{
			Interval: cfg.Notify.MinInterval(),
			Burst:    cfg.Notify.Burst,
		}),
	)

	return &Pipeline{
		Client:   client,
		Notifier: notifier,
		Loop: poller.Config{
			Interval:    cfg.Poll.IntervalDuration(),
			Destination: cfg.Telegram.ChatID,
			ErrorAlerts: cfg.Notify.ErrorAlerts,
		},
	}, nil
}

// NewLoop builds a poll loop over the pipeline.
func (p *Pipeline) NewLoop(logger *slog.Logger, opts ...poller.Option) *poller.Loop {
	opts = append([]poller.Option{poller.WithLogger(logger.With("component", "poller"))}, opts...)
	return poller.New(p.Client, p.Notifier, p.Loop, opts...)
}
