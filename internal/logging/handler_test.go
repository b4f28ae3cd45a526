package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input     string
		wantLevel slog.Level
		wantOK    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{" Warn ", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"", DefaultLevel, false},
		{"trace", DefaultLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, ok := ParseLevel(tt.input)
			if ok != tt.wantOK || level != tt.wantLevel {
				t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, %v)", tt.input, level, ok, tt.wantLevel, tt.wantOK)
			}
		})
	}
}

func TestSwappableHandler_Enabled(t *testing.T) {
	sh := NewSwappableHandler(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if sh.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Enabled(Info) = true, want false at Warn level")
	}
	if !sh.Enabled(context.Background(), slog.LevelError) {
		t.Error("Enabled(Error) = false, want true at Warn level")
	}
}

func TestSwappableHandler_Swap(t *testing.T) {
	var before, after bytes.Buffer
	sh := NewSwappableHandler(slog.NewTextHandler(&before, nil))
	logger := slog.New(sh)

	logger.Info("poll started")
	sh.Swap(slog.NewTextHandler(&after, nil))
	logger.Info("poll finished")

	if !strings.Contains(before.String(), "poll started") || strings.Contains(before.String(), "poll finished") {
		t.Errorf("bootstrap output = %q", before.String())
	}
	if !strings.Contains(after.String(), "poll finished") || strings.Contains(after.String(), "poll started") {
		t.Errorf("swapped output = %q", after.String())
	}
}

func TestSwappableHandler_DerivedLoggersFollowSwap(t *testing.T) {
	var bootstrap, upgraded bytes.Buffer
	sh := NewSwappableHandler(slog.NewTextHandler(&bootstrap, nil))

	pollerLogger := slog.New(sh).With("component", "poller").WithGroup("cycle")
	pollerLogger.Info("bootstrap", "id", "c-1")

	sh.Swap(slog.NewJSONHandler(&upgraded, nil))
	pollerLogger.Info("upgraded", "id", "c-2")

	if !strings.Contains(bootstrap.String(), "component=poller cycle.id=c-1") {
		t.Errorf("bootstrap output = %q", bootstrap.String())
	}

	var entry struct {
		Msg       string            `json:"msg"`
		Component string            `json:"component"`
		Cycle     map[string]string `json:"cycle"`
	}
	if err := json.Unmarshal(upgraded.Bytes(), &entry); err != nil {
		t.Fatalf("upgraded output is not JSON: %v (%q)", err, upgraded.String())
	}
	if entry.Msg != "upgraded" || entry.Component != "poller" || entry.Cycle["id"] != "c-2" {
		t.Errorf("upgraded entry = %+v", entry)
	}
}

func TestSwappableHandler_DerivationDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	sh := NewSwappableHandler(slog.NewTextHandler(&buf, nil))

	base := slog.New(sh).With("component", "daemon")
	_ = base.With("extra", "one")
	base.Info("status")

	if strings.Contains(buf.String(), "extra=one") {
		t.Errorf("sibling attrs leaked into parent: %q", buf.String())
	}
}
