// Package poller runs the poll, validate, translate and notify cycle that
// turns review-status changes into chat notifications.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leefowlercu/hwnotify/internal/homework"
	"github.com/leefowlercu/hwnotify/internal/metrics"
)

// DefaultInterval is the fixed wait between cycles.
const DefaultInterval = 600 * time.Second

// alertPrefix starts every failure alert sent to chat.
const alertPrefix = "Сбой в работе программы: "

// Poller fetches the raw review-status response for a cursor.
type Poller interface {
	Poll(ctx context.Context, cursor int64) (any, error)
}

// Notifier delivers a message to a destination.
type Notifier interface {
	Notify(ctx context.Context, destination, message string) error
}

// Config holds the loop settings. It is copied at construction.
type Config struct {
	// Interval is the wait between the end of one cycle and the start of the next.
	Interval time.Duration

	// Destination is the chat that receives notifications.
	Destination string

	// ErrorAlerts sends failed-cycle descriptions to Destination.
	ErrorAlerts bool
}

// Outcome classifies a finished cycle.
type Outcome string

const (
	// OutcomeNotified means a changed status was delivered.
	OutcomeNotified Outcome = "notified"

	// OutcomeUnchanged means the status matched the last delivered message.
	OutcomeUnchanged Outcome = "unchanged"

	// OutcomeEmpty means the server reported no submissions.
	OutcomeEmpty Outcome = "empty"

	// OutcomeFailed means the cycle stopped at an error; Kind says which.
	OutcomeFailed Outcome = "failed"
)

// CycleResult describes one RunOnce call.
type CycleResult struct {
	ID         string        `json:"id"`
	Outcome    Outcome       `json:"outcome"`
	Kind       homework.Kind `json:"kind,omitempty"`
	Message    string        `json:"message,omitempty"`
	Cursor     int64         `json:"cursor"`
	Err        error         `json:"-"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`

	// failMsg is the log message for the cycle's failure record.
	failMsg string
}

// Failed reports whether the cycle ended in an error.
func (r CycleResult) Failed() bool {
	return r.Outcome == OutcomeFailed
}

// Snapshot is a read-only copy of the loop state.
type Snapshot struct {
	Cursor int64       `json:"cursor"`
	State  string      `json:"state"`
	Cycles int         `json:"cycles"`
	Last   CycleResult `json:"last"`
}

// Observer is called after every cycle with its result.
type Observer func(CycleResult)

// Loop owns the poll cursor and the last delivered message.
type Loop struct {
	poller   Poller
	notifier Notifier
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
	wait     func(ctx context.Context, d time.Duration) error

	observersMu sync.RWMutex
	observers   []Observer

	runMu sync.Mutex

	stateMu    sync.RWMutex
	cursor     int64
	state      string
	alertState string
	cycles     int
	last       CycleResult
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(lp *Loop) {
		lp.logger = l
	}
}

// WithCursor sets the initial cursor instead of the current time.
func WithCursor(cursor int64) Option {
	return func(lp *Loop) {
		lp.cursor = cursor
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(lp *Loop) {
		lp.now = now
	}
}

// WithWait replaces the inter-cycle wait.
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(lp *Loop) {
		lp.wait = wait
	}
}

// WithObserver registers fn to be called after every cycle.
func WithObserver(fn Observer) Option {
	return func(lp *Loop) {
		lp.observers = append(lp.observers, fn)
	}
}

// New creates a Loop. The cursor starts at the current time unless
// WithCursor is given.
func New(p Poller, n Notifier, cfg Config, opts ...Option) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	l := &Loop{
		poller:   p,
		notifier: n,
		cfg:      cfg,
		logger:   slog.Default(),
		now:      time.Now,
		wait:     sleep,
		cursor:   -1,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.cursor < 0 {
		l.cursor = l.now().Unix()
	}

	return l
}

// OnCycle registers fn to be called after every cycle.
func (l *Loop) OnCycle(fn Observer) {
	l.observersMu.Lock()
	defer l.observersMu.Unlock()
	l.observers = append(l.observers, fn)
}

// Snapshot returns the current cursor, delivered state and last result.
func (l *Loop) Snapshot() Snapshot {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return Snapshot{
		Cursor: l.cursor,
		State:  l.state,
		Cycles: l.cycles,
		Last:   l.last,
	}
}

// CollectMetrics implements metrics.MetricsProvider. It fails while the most
// recent cycle is failed.
func (l *Loop) CollectMetrics(ctx context.Context) error {
	snap := l.Snapshot()
	metrics.PollCursor.Set(float64(snap.Cursor))
	if snap.Last.Failed() {
		return fmt.Errorf("last cycle failed; %w", snap.Last.Err)
	}
	return nil
}

// Run executes cycles until ctx is canceled, waiting the configured interval
// between them. It returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("poll loop started",
		"interval", l.cfg.Interval,
		"cursor", l.Snapshot().Cursor,
		"error_alerts", l.cfg.ErrorAlerts)

	for {
		if err := ctx.Err(); err != nil {
			l.logger.Info("poll loop stopped", "reason", err)
			return err
		}

		l.RunOnce(ctx)

		if err := l.wait(ctx, l.cfg.Interval); err != nil {
			l.logger.Info("poll loop stopped", "reason", err)
			return err
		}
	}
}

// RunOnce performs a single cycle. Failures are logged once and reported in
// the result; RunOnce never panics.
func (l *Loop) RunOnce(ctx context.Context) (res CycleResult) {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	id := uuid.NewString()
	logger := l.logger.With("cycle_id", id)

	l.stateMu.RLock()
	cursor, state := l.cursor, l.state
	l.stateMu.RUnlock()

	res = CycleResult{ID: id, Cursor: cursor, StartedAt: l.now()}
	delivered := false

	defer func() {
		if r := recover(); r != nil {
			res.Outcome = OutcomeFailed
			res.Kind = homework.KindInternal
			res.Err = fmt.Errorf("cycle panicked: %v", r)
			res.failMsg = "poll cycle panicked"
		}
		res.FinishedAt = l.now()

		if res.Failed() {
			l.logFailure(logger, res, l.alert(ctx, res))
		}
		l.commit(res, delivered)

		metrics.RecordCycle(string(res.Outcome), string(res.Kind), res.Cursor)
		l.notifyObservers(res)
	}()

	delivered = l.cycle(ctx, logger, &res, state)
	return res
}

// cycle runs the steps of one iteration against res and reports whether a
// new message was delivered. The cursor follows current_date after every
// successful poll except a failed delivery, which keeps it so the same
// record is fetched and retried next cycle.
func (l *Loop) cycle(ctx context.Context, logger *slog.Logger, res *CycleResult, state string) bool {
	raw, err := l.poller.Poll(ctx, res.Cursor)
	if err != nil {
		l.fail(res, "poll failed", err)
		return false
	}

	next := l.advance(logger, res.Cursor, raw)

	result, err := homework.Validate(raw)
	if err != nil {
		res.Cursor = next
		l.fail(res, "invalid response", err)
		return false
	}

	if result.Status == homework.StatusEmpty {
		res.Cursor = next
		res.Outcome = OutcomeEmpty
		logger.Info("no submissions in response", "cursor", res.Cursor)
		return false
	}

	latest, _ := result.Latest()
	message, err := homework.Translate(latest)
	if err != nil {
		res.Cursor = next
		l.fail(res, "failed to parse submission", err)
		return false
	}
	res.Message = message

	if !homework.ShouldNotify(message, state) {
		res.Cursor = next
		res.Outcome = OutcomeUnchanged
		logger.Debug("status unchanged", "cursor", res.Cursor)
		return false
	}

	if err := l.notifier.Notify(ctx, l.cfg.Destination, message); err != nil {
		l.fail(res, "failed to deliver notification", err)
		return false
	}

	res.Cursor = next
	res.Outcome = OutcomeNotified
	logger.Info("status change delivered",
		"cursor", res.Cursor,
		"records", len(result.Records))
	return true
}

// advance returns the cursor for the next cycle. A missing or smaller
// current_date keeps the current cursor.
func (l *Loop) advance(logger *slog.Logger, cursor int64, raw any) int64 {
	next, ok := homework.CurrentDate(raw)
	if !ok {
		return cursor
	}
	if next < cursor {
		logger.Warn("ignoring current_date behind cursor", "cursor", cursor, "current_date", next)
		return cursor
	}
	return next
}

// fail marks res failed. The single failure record is written by RunOnce
// once the optional alert has been attempted.
func (l *Loop) fail(res *CycleResult, msg string, err error) {
	res.Outcome = OutcomeFailed
	res.Kind = homework.KindOf(err)
	res.Err = err
	res.failMsg = msg
}

func (l *Loop) logFailure(logger *slog.Logger, res CycleResult, alertErr error) {
	attrs := append([]any{"kind", res.Kind, "cursor", res.Cursor, "error", res.Err}, errorAttrs(res.Err)...)
	if alertErr != nil {
		attrs = append(attrs, "alert_error", alertErr)
	}
	logger.Error(res.failMsg, attrs...)
}

// errorAttrs extracts diagnostic fields carried by the error taxonomy.
func errorAttrs(err error) []any {
	var (
		statusErr  *homework.UnexpectedStatusError
		decodeErr  *homework.DecodeError
		schemaErr  *homework.SchemaError
		missingErr *homework.MissingFieldError
		unknownErr *homework.UnknownStatusError
	)

	switch {
	case errors.As(err, &statusErr):
		return []any{"status_code", statusErr.StatusCode, "snippet", statusErr.Snippet}
	case errors.As(err, &decodeErr):
		return []any{"snippet", decodeErr.Snippet}
	case errors.As(err, &schemaErr):
		return []any{"field", schemaErr.Field}
	case errors.As(err, &missingErr):
		return []any{"field", missingErr.Field}
	case errors.As(err, &unknownErr):
		return []any{"status", unknownErr.Status}
	}
	return nil
}

// alert sends a failure description to chat once per distinct error text
// and returns the delivery error, if any.
func (l *Loop) alert(ctx context.Context, res CycleResult) error {
	if !l.cfg.ErrorAlerts || res.Err == nil || res.Kind == homework.KindDelivery {
		return nil
	}

	text := alertPrefix + res.Err.Error()

	l.stateMu.RLock()
	last := l.alertState
	l.stateMu.RUnlock()

	if !homework.ShouldNotify(text, last) {
		return nil
	}

	if err := l.notifier.Notify(ctx, l.cfg.Destination, text); err != nil {
		return err
	}

	l.stateMu.Lock()
	l.alertState = text
	l.stateMu.Unlock()
	return nil
}

func (l *Loop) commit(res CycleResult, delivered bool) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()

	l.cursor = res.Cursor
	if delivered {
		l.state = res.Message
	}
	l.cycles++
	l.last = res
}

func (l *Loop) notifyObservers(res CycleResult) {
	l.observersMu.RLock()
	observers := make([]Observer, len(l.observers))
	copy(observers, l.observers)
	l.observersMu.RUnlock()

	for _, fn := range observers {
		fn(res)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
