// Package notify delivers notification text to a chat destination.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/leefowlercu/hwnotify/internal/homework"
	"github.com/leefowlercu/hwnotify/internal/metrics"
)

// ErrEmptyMessage is returned when asked to deliver an empty message.
var ErrEmptyMessage = errors.New("empty message")

// Sender delivers text to a destination. Implementations wrap a chat API.
type Sender interface {
	Send(ctx context.Context, destination, text string) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, destination, text string) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, destination, text string) error {
	return f(ctx, destination, text)
}

// RateLimitConfig bounds how fast messages are handed to the Sender.
type RateLimitConfig struct {
	// Interval is the minimum spacing between deliveries. Zero disables limiting.
	Interval time.Duration

	// Burst is the number of deliveries allowed back to back.
	Burst int
}

// Notifier hands messages to a Sender and reports every failure as
// *homework.DeliveryError.
type Notifier struct {
	sender  Sender
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) {
		n.logger = l
	}
}

// WithRateLimit throttles deliveries.
func WithRateLimit(cfg RateLimitConfig) Option {
	return func(n *Notifier) {
		if cfg.Interval <= 0 {
			n.limiter = nil
			return
		}
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		n.limiter = rate.NewLimiter(rate.Every(cfg.Interval), burst)
	}
}

// New creates a Notifier that delivers through sender.
func New(sender Sender, opts ...Option) *Notifier {
	n := &Notifier{
		sender: sender,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Notify delivers message to destination. It never panics; a nil return
// means the Sender accepted the message.
func (n *Notifier) Notify(ctx context.Context, destination, message string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &homework.DeliveryError{
				Destination: destination,
				Message:     message,
				Err:         fmt.Errorf("sender panicked: %v", r),
			}
		}
		metrics.RecordNotification(err)
	}()

	if n.sender == nil {
		return &homework.DeliveryError{Destination: destination, Message: message, Err: errors.New("no sender configured")}
	}
	if message == "" {
		return &homework.DeliveryError{Destination: destination, Message: message, Err: ErrEmptyMessage}
	}

	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return &homework.DeliveryError{
				Destination: destination,
				Message:     message,
				Err:         fmt.Errorf("rate limit wait failed; %w", err),
			}
		}
	}

	if err := n.sender.Send(ctx, destination, message); err != nil {
		return &homework.DeliveryError{Destination: destination, Message: message, Err: err}
	}

	n.logger.Debug("notification delivered", "destination", destination, "length", len(message))
	return nil
}
