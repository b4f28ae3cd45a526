package metrics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/leefowlercu/hwnotify/internal/version"
)

// MetricsProvider is implemented by components that refresh their gauges
// on each collection. A returned error marks the component unhealthy.
type MetricsProvider interface {
	CollectMetrics(ctx context.Context) error
}

// Collector polls registered providers on a fixed interval.
type Collector struct {
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	providers map[string]MetricsProvider
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewCollector creates a collector. A non-positive interval collects once
// at Start only.
func NewCollector(interval time.Duration) *Collector {
	return &Collector{
		interval:  interval,
		logger:    slog.Default().With("component", "metrics"),
		providers: make(map[string]MetricsProvider),
	}
}

// Register adds or replaces the provider for name.
func (c *Collector) Register(name string, provider MetricsProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers[name] = provider
}

// Unregister removes the provider for name and drops its status series.
func (c *Collector) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.providers, name)
	ComponentStatus.DeleteLabelValues(name)
}

// Start publishes the build info, collects once and then keeps collecting
// until Stop or ctx cancellation. Calling Start on a running collector is
// a no-op.
func (c *Collector) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel, c.done = cancel, done
	c.mu.Unlock()

	info := version.Get()
	DaemonInfo.WithLabelValues(info.Version, info.GitCommit, info.GoVersion).Set(1)
	DaemonStartTime.SetToCurrentTime()

	c.collect(runCtx)

	go func() {
		defer close(done)
		if c.interval <= 0 {
			<-runCtx.Done()
			return
		}

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				c.collect(runCtx)
			}
		}
	}()

	return nil
}

// Stop halts collection and waits for an in-flight pass to finish or ctx
// to expire.
func (c *Collector) Stop(ctx context.Context) error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether Start has been called without a matching Stop.
func (c *Collector) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

func (c *Collector) collect(ctx context.Context) {
	c.mu.Lock()
	names := make([]string, 0, len(c.providers))
	for name := range c.providers {
		names = append(names, name)
	}
	providers := make(map[string]MetricsProvider, len(c.providers))
	for name, p := range c.providers {
		providers[name] = p
	}
	c.mu.Unlock()

	sort.Strings(names)
	for _, name := range names {
		if err := providers[name].CollectMetrics(ctx); err != nil {
			ComponentStatus.WithLabelValues(name).Set(0)
			CollectErrorsTotal.WithLabelValues(name).Inc()
			c.logger.Debug("metrics provider reported unhealthy", "provider", name, "error", err)
			continue
		}
		ComponentStatus.WithLabelValues(name).Set(1)
	}
}
