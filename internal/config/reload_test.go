package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDetectChangedSections_NoChanges(t *testing.T) {
	cfg := NewDefaultConfig()

	changed := detectChangedSections(&cfg, &cfg)
	if len(changed) != 0 {
		t.Errorf("detectChangedSections() returned %v, want empty slice", changed)
	}
}

func TestDetectChangedSections_LogLevelChanged(t *testing.T) {
	old := NewDefaultConfig()
	new := NewDefaultConfig()
	new.LogLevel = "debug"

	changed := detectChangedSections(&old, &new)
	if len(changed) != 1 || changed[0] != "log_level" {
		t.Errorf("detectChangedSections() = %v, want [log_level]", changed)
	}
}

func TestDetectChangedSections_MultipleChanges(t *testing.T) {
	old := NewDefaultConfig()
	new := NewDefaultConfig()
	new.Poll.Interval = 60
	new.Telegram.ChatID = "42"
	new.Daemon.HTTPPort = 9999

	changed := detectChangedSections(&old, &new)
	want := []string{"telegram", "poll", "daemon"}
	if len(changed) != len(want) {
		t.Fatalf("detectChangedSections() = %v, want %v", changed, want)
	}
	for i := range want {
		if changed[i] != want[i] {
			t.Errorf("changed[%d] = %q, want %q", i, changed[i], want[i])
		}
	}
}

func TestIsReloadable(t *testing.T) {
	tests := []struct {
		name     string
		sections []string
		want     bool
	}{
		{"empty", nil, true},
		{"log level only", []string{"log_level"}, true},
		{"poll", []string{"log_level", "poll"}, false},
		{"daemon", []string{"daemon"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isReloadable(tt.sections); got != tt.want {
				t.Errorf("isReloadable(%v) = %v, want %v", tt.sections, got, tt.want)
			}
		})
	}
}

func TestReload_InvokesCallbacks(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("log_level: info\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv(EnvConfigDir, tmpDir)
	Reset()
	t.Cleanup(Reset)

	if err := Init(); err != nil {
		t.Fatalf("Init() returned error: %v", err)
	}

	var gotOld, gotNew string
	calls := 0
	OnReload(func(old, new *Config) {
		calls++
		gotOld, gotNew = old.LogLevel, new.LogLevel
	})

	if err := os.WriteFile(configPath, []byte("log_level: debug\n"), 0o644); err != nil {
		t.Fatalf("failed to update config file: %v", err)
	}
	if err := Reload(); err != nil {
		t.Fatalf("Reload() returned error: %v", err)
	}

	if calls != 1 {
		t.Fatalf("callback invoked %d times, want 1", calls)
	}
	if gotOld != "info" || gotNew != "debug" {
		t.Errorf("callback got (%q, %q), want (info, debug)", gotOld, gotNew)
	}

	// Unchanged content does not trigger callbacks
	if err := Reload(); err != nil {
		t.Fatalf("Reload() returned error: %v", err)
	}
	if calls != 1 {
		t.Errorf("callback invoked %d times after no-op reload, want 1", calls)
	}
}

func TestReload_ValidationFailure_RetainsPrevious(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("poll:\n  interval: 120\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv(EnvConfigDir, tmpDir)
	Reset()
	t.Cleanup(Reset)

	if err := Init(); err != nil {
		t.Fatalf("Init() returned error: %v", err)
	}

	if err := os.WriteFile(configPath, []byte("poll:\n  interval: 0\n"), 0o644); err != nil {
		t.Fatalf("failed to update config file: %v", err)
	}

	if err := Reload(); err == nil {
		t.Fatal("Reload() should fail validation for poll.interval 0")
	}
	if got := Get().Poll.Interval; got != 120 {
		t.Errorf("Get().Poll.Interval = %d after failed reload, want 120 (retained)", got)
	}
}

func TestWatch_ReloadsOnFileChange(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("log_level: info\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv(EnvConfigDir, tmpDir)
	Reset()
	t.Cleanup(Reset)

	if err := Init(); err != nil {
		t.Fatalf("Init() returned error: %v", err)
	}

	changed := make(chan string, 4)
	OnReload(func(old, new *Config) {
		changed <- new.LogLevel
	})
	Watch()

	// Give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configPath, []byte("log_level: warn\n"), 0o644); err != nil {
		t.Fatalf("failed to update config file: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case level := <-changed:
			if level == "warn" {
				return
			}
		case <-deadline:
			t.Fatalf("config change not observed; Get().LogLevel = %q", Get().LogLevel)
		}
	}
}

func TestWatch_NoConfigFile_NoOp(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvConfigDir, tmpDir)
	t.Setenv("HOME", tmpDir)

	origDir, _ := os.Getwd()
	_ = os.Chdir(tmpDir)
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	Reset()
	t.Cleanup(Reset)

	if err := Init(); err != nil {
		t.Fatalf("Init() returned error: %v", err)
	}

	// Must not panic or start a watcher without a file
	Watch()
}
