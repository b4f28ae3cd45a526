// Package daemon runs the poll loop as a supervised foreground service.
// It owns the PID file, the health and metrics HTTP server, and systemd
// readiness notifications.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"

	"github.com/leefowlercu/hwnotify/internal/metrics"
)

// DaemonState represents the lifecycle state of the daemon.
type DaemonState string

const (
	// DaemonStateStarting indicates the daemon is initializing.
	DaemonStateStarting DaemonState = "starting"

	// DaemonStateRunning indicates all components are healthy and serving.
	DaemonStateRunning DaemonState = "running"

	// DaemonStateDegraded indicates some components are reporting failures.
	DaemonStateDegraded DaemonState = "degraded"

	// DaemonStateStopping indicates graceful shutdown is in progress.
	DaemonStateStopping DaemonState = "stopping"

	// DaemonStateStopped indicates the daemon has terminated.
	DaemonStateStopped DaemonState = "stopped"
)

// IsTerminal returns true if this state is a terminal state (no further transitions).
func (s DaemonState) IsTerminal() bool {
	return s == DaemonStateStopped
}

// CanTransitionTo returns true if transitioning to the target state is valid.
func (s DaemonState) CanTransitionTo(target DaemonState) bool {
	switch s {
	case DaemonStateStarting:
		return target == DaemonStateRunning || target == DaemonStateStopped
	case DaemonStateRunning:
		return target == DaemonStateDegraded || target == DaemonStateStopping
	case DaemonStateDegraded:
		return target == DaemonStateRunning || target == DaemonStateStopping
	case DaemonStateStopping:
		return target == DaemonStateStopped
	default:
		return false
	}
}

// DaemonConfig holds the configuration values for the daemon.
type DaemonConfig struct {
	// HTTPPort is the port for the health and metrics server.
	HTTPPort int

	// HTTPBind is the address to bind the HTTP server.
	HTTPBind string

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration

	// PIDFile is the path to the PID file.
	PIDFile string

	// MetricsInterval is how often registered metrics providers are collected.
	MetricsInterval time.Duration

	// StaleAfter marks a component stale when it has not reported for this
	// long. Zero disables the check.
	StaleAfter time.Duration
}

// DefaultDaemonConfig returns the default daemon configuration.
func DefaultDaemonConfig() DaemonConfig {
	return DaemonConfig{
		HTTPPort:        7610,
		HTTPBind:        "127.0.0.1",
		ShutdownTimeout: 30 * time.Second,
		PIDFile:         "~/.config/hwnotify/daemon.pid",
		MetricsInterval: 15 * time.Second,
	}
}

// NotifyFunc delivers a service manager notification such as "READY=1".
// It reports whether the notification was sent.
type NotifyFunc func(state string) (bool, error)

// Daemon is the main daemon process manager.
// It is safe for concurrent use.
type Daemon struct {
	mu         sync.RWMutex
	config     DaemonConfig
	state      DaemonState
	server     *Server
	health     *HealthManager
	pidFile    *PIDFile
	supervisor *ComponentSupervisor
	collector  *metrics.Collector
	components []component
	logger     *slog.Logger
	notify     NotifyFunc
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithLogger sets the daemon logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Daemon) {
		d.logger = l
	}
}

// WithNotify replaces the systemd notifier.
func WithNotify(fn NotifyFunc) Option {
	return func(d *Daemon) {
		d.notify = fn
	}
}

// NewDaemon creates a new Daemon instance with the given configuration.
func NewDaemon(cfg DaemonConfig, opts ...Option) *Daemon {
	d := &Daemon{
		config: cfg,
		state:  DaemonStateStopped,
		health: NewHealthManager(WithStaleAfter(cfg.StaleAfter)),
		logger: slog.Default(),
		notify: func(state string) (bool, error) {
			return sddaemon.SdNotify(false, state)
		},
	}

	for _, opt := range opts {
		opt(d)
	}
	if cfg.MetricsInterval <= 0 {
		cfg.MetricsInterval = DefaultDaemonConfig().MetricsInterval
	}

	d.server = NewServer(d.health, ServerConfig{
		Port: cfg.HTTPPort,
		Bind: cfg.HTTPBind,
	})
	d.server.SetMetricsHandler(metrics.Handler())
	d.pidFile = NewPIDFile(cfg.PIDFile)
	d.supervisor = NewComponentSupervisor(d, WithSupervisorLogger(d.logger))
	d.collector = metrics.NewCollector(cfg.MetricsInterval)

	return d
}

// State returns the current daemon state.
func (d *Daemon) State() DaemonState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *Daemon) setState(state DaemonState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = state
}

// Health returns the current aggregate health status.
func (d *Daemon) Health() HealthStatus {
	return d.health.Status()
}

// UpdateComponentHealth updates health status for multiple components and
// moves the daemon between running and degraded accordingly.
func (d *Daemon) UpdateComponentHealth(statuses map[string]ComponentHealth) {
	d.health.UpdateComponentHealth(statuses)

	d.mu.Lock()
	defer d.mu.Unlock()

	target := DaemonStateRunning
	if d.health.Status().Status != HealthHealthy {
		target = DaemonStateDegraded
	}
	if d.state != target && d.state.CanTransitionTo(target) {
		d.state = target
	}
}

// AddComponent registers a long-running component. Components start in
// registration order when Start is called.
func (d *Daemon) AddComponent(name string, run RunFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.components = append(d.components, component{name: name, run: run})
}

// RegisterMetrics adds a provider polled by the metrics collector.
func (d *Daemon) RegisterMetrics(name string, provider metrics.MetricsProvider) {
	d.collector.Register(name, provider)
}

// Start starts the daemon and blocks until the context is canceled.
// It claims the PID file, starts the HTTP server and registered components,
// signals readiness to systemd, and then blocks until shutdown is requested.
func (d *Daemon) Start(ctx context.Context) error {
	d.setState(DaemonStateStarting)

	if err := d.pidFile.CheckAndClaim(); err != nil {
		d.setState(DaemonStateStopped)
		return fmt.Errorf("failed to claim PID file; %w", err)
	}
	defer func() { _ = d.pidFile.Remove() }()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ln, err := d.server.Listen()
	if err != nil {
		d.setState(DaemonStateStopped)
		return err
	}
	serverErr := make(chan error, 1)
	go func() {
		if err := d.server.Serve(runCtx, ln); err != nil {
			serverErr <- err
		}
		close(serverErr)
	}()

	if err := d.collector.Start(runCtx); err != nil {
		d.logger.Warn("failed to start metrics collector", "error", err)
	}

	d.mu.RLock()
	components := append([]component(nil), d.components...)
	d.mu.RUnlock()
	for _, c := range components {
		d.supervisor.Supervise(runCtx, c.name, c.run)
	}

	d.setState(DaemonStateRunning)
	d.sdNotify(sddaemon.SdNotifyReady)
	go d.watchdog(runCtx)

	d.logger.Info("daemon started",
		"state", d.State(),
		"addr", d.server.ListenAddr(),
		"components", len(components),
	)

	select {
	case <-ctx.Done():
		d.logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			d.logger.Error("http server error", "error", err)
		}
	}

	return d.Stop()
}

// Stop performs graceful shutdown of the daemon.
func (d *Daemon) Stop() error {
	d.setState(DaemonStateStopping)
	d.sdNotify(sddaemon.SdNotifyStopping)
	d.logger.Info("stopping daemon")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.config.ShutdownTimeout)
	defer cancel()

	d.supervisor.CancelAll()
	if err := d.supervisor.Wait(shutdownCtx); err != nil {
		d.logger.Error("components did not stop cleanly", "error", err)
	}

	if err := d.collector.Stop(shutdownCtx); err != nil {
		d.logger.Error("failed to stop metrics collector", "error", err)
	}

	if err := d.server.Shutdown(shutdownCtx); err != nil {
		d.logger.Error("failed to shutdown http server", "error", err)
	}

	d.setState(DaemonStateStopped)
	d.logger.Info("daemon stopped")

	return nil
}

func (d *Daemon) sdNotify(state string) {
	sent, err := d.notify(state)
	if err != nil {
		d.logger.Warn("failed to notify service manager", "state", state, "error", err)
		return
	}
	if sent {
		d.logger.Debug("notified service manager", "state", state)
	}
}

// watchdog pings systemd at half the configured WatchdogSec. Pings stop
// while a component is failed or stopped, so systemd restarts the service
// if it does not recover within WatchdogSec.
func (d *Daemon) watchdog(ctx context.Context) {
	interval, err := sddaemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.watchdogTick()
		}
	}
}

func (d *Daemon) watchdogTick() {
	if status := d.health.Status(); !status.Ready {
		d.logger.Warn("withholding watchdog ping", "health", status.Status)
		return
	}
	d.sdNotify(sddaemon.SdNotifyWatchdog)
}
