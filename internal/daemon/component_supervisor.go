package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leefowlercu/hwnotify/internal/metrics"
)

const (
	defaultMinBackoff = time.Second
	defaultMaxBackoff = 30 * time.Second
)

var errEarlyReturn = errors.New("component returned before shutdown")

// backoff doubles from min up to max. A run that lasted longer than max
// counts as stable and starts the next failure from min again.
type backoff struct {
	min, max, cur time.Duration
}

func (b *backoff) next(ranFor time.Duration) time.Duration {
	if b.cur == 0 || ranFor > b.max {
		b.cur = b.min
		return b.cur
	}
	b.cur = min(b.cur*2, b.max)
	return b.cur
}

type supervised struct {
	cancel   context.CancelFunc
	restarts int
}

// ComponentSupervisor keeps RunFuncs alive until their context ends. Each
// early return or panic is reported as failed health, counted, and followed
// by a restart.
type ComponentSupervisor struct {
	mu         sync.Mutex
	wg         sync.WaitGroup
	components map[string]*supervised
	health     HealthUpdater
	logger     *slog.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

// SupervisorOption configures ComponentSupervisor.
type SupervisorOption func(*ComponentSupervisor)

// WithSupervisorLogger sets the logger.
func WithSupervisorLogger(l *slog.Logger) SupervisorOption {
	return func(s *ComponentSupervisor) {
		s.logger = l
	}
}

// WithBackoff sets the restart delay bounds.
func WithBackoff(min, max time.Duration) SupervisorOption {
	return func(s *ComponentSupervisor) {
		s.minBackoff = min
		s.maxBackoff = max
	}
}

// NewComponentSupervisor creates a supervisor reporting to health, which may be nil.
func NewComponentSupervisor(health HealthUpdater, opts ...SupervisorOption) *ComponentSupervisor {
	s := &ComponentSupervisor{
		components: make(map[string]*supervised),
		health:     health,
		logger:     slog.Default(),
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Supervise runs run under name in its own goroutine. Supervising a name
// that is already running cancels the previous instance.
func (s *ComponentSupervisor) Supervise(ctx context.Context, name string, run RunFunc) {
	runCtx, cancel := context.WithCancel(ctx)
	entry := &supervised{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.components[name]; ok {
		prev.cancel()
	}
	s.components[name] = entry
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(runCtx, name, entry, run)
	}()
}

func (s *ComponentSupervisor) loop(ctx context.Context, name string, entry *supervised, run RunFunc) {
	delay := backoff{min: s.minBackoff, max: s.maxBackoff}
	log := s.logger.With("component", name)

	for {
		s.report(name, ComponentHealth{Status: ComponentStatusRunning})

		started := time.Now()
		err := runGuarded(ctx, run)
		if ctx.Err() != nil {
			s.report(name, ComponentHealth{Status: ComponentStatusStopped})
			return
		}
		if err == nil {
			err = errEarlyReturn
		}

		wait := delay.next(time.Since(started))
		s.mu.Lock()
		entry.restarts++
		restarts := entry.restarts
		s.mu.Unlock()

		log.Warn("component exited; restarting", "backoff", wait, "restarts", restarts, "error", err)
		s.report(name, ComponentHealth{
			Status:  ComponentStatusFailed,
			Error:   err.Error(),
			Details: map[string]any{"restarts": restarts},
		})
		metrics.RecordRestart(name)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			s.report(name, ComponentHealth{Status: ComponentStatusStopped})
			return
		case <-t.C:
		}
	}
}

func runGuarded(ctx context.Context, run RunFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("component panicked: %v", r)
		}
	}()
	return run(ctx)
}

func (s *ComponentSupervisor) report(name string, health ComponentHealth) {
	if s.health == nil {
		return
	}
	health.LastChecked = time.Now()
	s.health.UpdateComponentHealth(map[string]ComponentHealth{name: health})
}

// Restarts returns how often name has been restarted.
func (s *ComponentSupervisor) Restarts(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.components[name]; ok {
		return entry.restarts
	}
	return 0
}

// Cancel stops supervising name.
func (s *ComponentSupervisor) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.components[name]; ok {
		entry.cancel()
		delete(s.components, name)
	}
}

// CancelAll stops every supervised component.
func (s *ComponentSupervisor) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, entry := range s.components {
		s.logger.Debug("canceling component", "component", name)
		entry.cancel()
	}
	clear(s.components)
}

// Wait blocks until every supervised goroutine has exited or ctx is done.
func (s *ComponentSupervisor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("components did not stop in time; %w", ctx.Err())
	}
}

// SupervisedCount returns the number of supervised components.
func (s *ComponentSupervisor) SupervisedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.components)
}
