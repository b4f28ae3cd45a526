package config

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// reloadMu serialises reloads from SIGHUP and the file watcher.
var reloadMu sync.Mutex

// sighup is the running SIGHUP listener, if any.
var sighup struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// guardedReload runs fn unless another reload is in progress. Failures are
// logged by fn and the previous configuration is retained.
func guardedReload(source string, fn func() error) error {
	if !reloadMu.TryLock() {
		slog.Debug("reload already in progress; ignoring", "source", source)
		return nil
	}
	defer reloadMu.Unlock()

	slog.Info("reloading config", "source", source)
	return fn()
}

// SetupSignalHandler reloads the configuration on every SIGHUP until
// StopSignalHandler is called. A second call replaces the first listener.
func SetupSignalHandler() {
	StopSignalHandler()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP)

	go func() {
		defer close(done)
		defer signal.Stop(ch)
		for {
			select {
			case <-ch:
				_ = guardedReload("sighup", Reload)
			case <-ctx.Done():
				return
			}
		}
	}()

	sighup.mu.Lock()
	sighup.cancel, sighup.done = cancel, done
	sighup.mu.Unlock()
}

// StopSignalHandler stops the SIGHUP listener and waits for it to exit.
func StopSignalHandler() {
	sighup.mu.Lock()
	cancel, done := sighup.cancel, sighup.done
	sighup.cancel, sighup.done = nil, nil
	sighup.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
