package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
)

// DefaultLevel is the log level used when not configured.
const DefaultLevel = slog.LevelInfo

// ParseLevel converts a configured level name to slog.Level. Names are
// case-insensitive and "warning" is accepted for warn.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return DefaultLevel, false
}

// ParseLevelOrDefault is ParseLevel without the ok flag.
func ParseLevelOrDefault(s string) slog.Level {
	level, _ := ParseLevel(s)
	return level
}

// SwappableHandler forwards records to a root handler that can be replaced
// at runtime. Handlers derived through WithAttrs and WithGroup keep their
// attributes and follow later swaps, so a component logger built during
// bootstrap still reaches the log file after Upgrade.
type SwappableHandler struct {
	root  *atomic.Pointer[slog.Handler]
	chain []func(slog.Handler) slog.Handler
	cache atomic.Pointer[derived]
}

type derived struct {
	base    *slog.Handler
	handler slog.Handler
}

// NewSwappableHandler creates a handler forwarding to initial.
func NewSwappableHandler(initial slog.Handler) *SwappableHandler {
	root := new(atomic.Pointer[slog.Handler])
	root.Store(&initial)
	return &SwappableHandler{root: root}
}

// Swap replaces the root handler for this handler and every handler
// derived from it.
func (sh *SwappableHandler) Swap(h slog.Handler) {
	sh.root.Store(&h)
}

// current applies the derived attrs and groups to the root handler,
// rebuilding only after a swap.
func (sh *SwappableHandler) current() slog.Handler {
	base := sh.root.Load()
	if c := sh.cache.Load(); c != nil && c.base == base {
		return c.handler
	}

	h := *base
	for _, apply := range sh.chain {
		h = apply(h)
	}
	sh.cache.Store(&derived{base: base, handler: h})
	return h
}

func (sh *SwappableHandler) derive(apply func(slog.Handler) slog.Handler) *SwappableHandler {
	chain := make([]func(slog.Handler) slog.Handler, len(sh.chain), len(sh.chain)+1)
	copy(chain, sh.chain)
	return &SwappableHandler{root: sh.root, chain: append(chain, apply)}
}

func (sh *SwappableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return sh.current().Enabled(ctx, level)
}

func (sh *SwappableHandler) Handle(ctx context.Context, r slog.Record) error {
	return sh.current().Handle(ctx, r)
}

func (sh *SwappableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return sh
	}
	return sh.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (sh *SwappableHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return sh
	}
	return sh.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}
