package daemon

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"
)

type recordedNotify struct {
	mu     sync.Mutex
	states []string
}

func (r *recordedNotify) notify(state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	return true, nil
}

func (r *recordedNotify) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.states...)
}

func testDaemonConfig(t *testing.T) DaemonConfig {
	t.Helper()
	return DaemonConfig{
		HTTPPort:        0,
		HTTPBind:        "127.0.0.1",
		ShutdownTimeout: 2 * time.Second,
		PIDFile:         filepath.Join(t.TempDir(), "daemon.pid"),
		MetricsInterval: time.Hour,
	}
}

func TestDaemonState_IsTerminal(t *testing.T) {
	for _, s := range []DaemonState{DaemonStateStarting, DaemonStateRunning, DaemonStateDegraded, DaemonStateStopping} {
		if s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = true, want false", s)
		}
	}
	if !DaemonStateStopped.IsTerminal() {
		t.Error("stopped.IsTerminal() = false, want true")
	}
}

func TestDaemonState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from DaemonState
		to   DaemonState
		want bool
	}{
		{"starting to running", DaemonStateStarting, DaemonStateRunning, true},
		{"starting to stopped", DaemonStateStarting, DaemonStateStopped, true},
		{"starting to degraded", DaemonStateStarting, DaemonStateDegraded, false},
		{"running to degraded", DaemonStateRunning, DaemonStateDegraded, true},
		{"running to stopping", DaemonStateRunning, DaemonStateStopping, true},
		{"running to stopped", DaemonStateRunning, DaemonStateStopped, false},
		{"degraded to running", DaemonStateDegraded, DaemonStateRunning, true},
		{"degraded to stopping", DaemonStateDegraded, DaemonStateStopping, true},
		{"stopping to stopped", DaemonStateStopping, DaemonStateStopped, true},
		{"stopping to running", DaemonStateStopping, DaemonStateRunning, false},
		{"stopped to starting", DaemonStateStopped, DaemonStateStarting, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%v.CanTransitionTo(%v) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestNewDaemon_Defaults(t *testing.T) {
	d := NewDaemon(DaemonConfig{PIDFile: filepath.Join(t.TempDir(), "daemon.pid")})

	if d.State() != DaemonStateStopped {
		t.Errorf("State() = %v, want %v", d.State(), DaemonStateStopped)
	}
	if h := d.Health(); h.Status != "healthy" || !h.Ready {
		t.Errorf("Health() = %+v, want healthy and ready", h)
	}
}

func TestDaemon_UpdateComponentHealth_TogglesDegraded(t *testing.T) {
	d := NewDaemon(testDaemonConfig(t), WithLogger(discardLogger()))
	d.setState(DaemonStateRunning)

	d.UpdateComponentHealth(map[string]ComponentHealth{
		PollerComponent: {Status: ComponentStatusDegraded, LastChecked: time.Now()},
	})
	if d.State() != DaemonStateDegraded {
		t.Errorf("State() = %v, want degraded", d.State())
	}

	d.UpdateComponentHealth(map[string]ComponentHealth{
		PollerComponent: {Status: ComponentStatusRunning, LastChecked: time.Now()},
	})
	if d.State() != DaemonStateRunning {
		t.Errorf("State() = %v, want running", d.State())
	}

	d.setState(DaemonStateStopping)
	d.UpdateComponentHealth(map[string]ComponentHealth{
		PollerComponent: {Status: ComponentStatusStopped, LastChecked: time.Now()},
	})
	if d.State() != DaemonStateStopping {
		t.Errorf("State() = %v, want stopping to be kept", d.State())
	}
}

func TestDaemon_Start_RunsComponentsUntilCancelled(t *testing.T) {
	cfg := testDaemonConfig(t)
	rec := &recordedNotify{}
	d := NewDaemon(cfg, WithLogger(discardLogger()), WithNotify(rec.notify))

	started := make(chan struct{})
	stopped := make(chan struct{})
	d.AddComponent(PollerComponent, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(stopped)
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(ctx) }()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("component did not start")
	}

	waitFor(t, func() bool { return d.State() == DaemonStateRunning })

	pid, err := NewPIDFile(cfg.PIDFile).Read()
	if err != nil {
		t.Fatalf("PID file not written: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("PID file = %d, want %d", pid, os.Getpid())
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}

	select {
	case <-stopped:
	default:
		t.Error("component was not cancelled during shutdown")
	}

	if d.State() != DaemonStateStopped {
		t.Errorf("State() = %v, want stopped", d.State())
	}
	if _, err := os.Stat(cfg.PIDFile); !os.IsNotExist(err) {
		t.Error("PID file should be removed after shutdown")
	}

	states := rec.snapshot()
	if len(states) < 2 || states[0] != "READY=1" || states[len(states)-1] != "STOPPING=1" {
		t.Errorf("notifications = %v, want READY=1 first and STOPPING=1 last", states)
	}
}

func TestDaemon_Start_AlreadyRunning(t *testing.T) {
	cfg := testDaemonConfig(t)
	if err := os.WriteFile(cfg.PIDFile, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	rec := &recordedNotify{}
	d := NewDaemon(cfg, WithLogger(discardLogger()), WithNotify(rec.notify))

	err := d.Start(context.Background())
	if !errors.Is(err, ErrDaemonAlreadyRunning) {
		t.Fatalf("Start() error = %v, want ErrDaemonAlreadyRunning", err)
	}
	if d.State() != DaemonStateStopped {
		t.Errorf("State() = %v, want stopped", d.State())
	}
	if len(rec.snapshot()) != 0 {
		t.Errorf("no readiness should be signalled, got %v", rec.snapshot())
	}
	if _, statErr := os.Stat(cfg.PIDFile); statErr != nil {
		t.Error("the other process's PID file must be left in place")
	}
}

func TestDaemon_SdNotifyErrorIsLogged(t *testing.T) {
	d := NewDaemon(testDaemonConfig(t), WithLogger(discardLogger()), WithNotify(func(string) (bool, error) {
		return false, errors.New("socket unavailable")
	}))

	// must not panic or block
	d.sdNotify("READY=1")
}

func TestDaemon_Start_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve a port: %v", err)
	}
	defer ln.Close()

	cfg := testDaemonConfig(t)
	cfg.HTTPPort = ln.Addr().(*net.TCPAddr).Port
	rec := &recordedNotify{}
	d := NewDaemon(cfg, WithLogger(discardLogger()), WithNotify(rec.notify))

	if err := d.Start(context.Background()); err == nil {
		t.Fatal("Start() should fail when the HTTP port is taken")
	}
	if len(rec.snapshot()) != 0 {
		t.Errorf("no readiness should be signalled, got %v", rec.snapshot())
	}
	if _, err := os.Stat(cfg.PIDFile); !os.IsNotExist(err) {
		t.Error("PID file should be released after a bind failure")
	}
}

func TestDaemon_WatchdogTick_WithheldWhileNotReady(t *testing.T) {
	rec := &recordedNotify{}
	d := NewDaemon(testDaemonConfig(t), WithLogger(discardLogger()), WithNotify(rec.notify))

	d.UpdateComponentHealth(map[string]ComponentHealth{
		PollerComponent: {Status: ComponentStatusDegraded},
	})
	d.watchdogTick()
	if got := rec.snapshot(); len(got) != 1 || got[0] != "WATCHDOG=1" {
		t.Fatalf("notifications = %v, want one WATCHDOG=1 while degraded", got)
	}

	d.UpdateComponentHealth(map[string]ComponentHealth{
		PollerComponent: {Status: ComponentStatusFailed, Error: "component panicked: boom"},
	})
	d.watchdogTick()
	if got := rec.snapshot(); len(got) != 1 {
		t.Errorf("notifications = %v, want no ping while a component is failed", got)
	}

	d.UpdateComponentHealth(map[string]ComponentHealth{
		PollerComponent: {Status: ComponentStatusRunning},
	})
	d.watchdogTick()
	if got := rec.snapshot(); len(got) != 2 {
		t.Errorf("notifications = %v, want pings to resume after recovery", got)
	}
}
