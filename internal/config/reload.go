package config

import (
	"log/slog"
	"reflect"
	"sync"
)

// ReloadFunc is invoked after a successful reload with the previous and new
// configuration. Both values must be treated as read-only.
type ReloadFunc func(old, new *Config)

var (
	// callbacksMu protects reloadCallbacks
	callbacksMu sync.RWMutex

	reloadCallbacks []ReloadFunc
)

// OnReload registers fn to run after every successful reload.
func OnReload(fn ReloadFunc) {
	callbacksMu.Lock()
	defer callbacksMu.Unlock()
	reloadCallbacks = append(reloadCallbacks, fn)
}

func clearReloadCallbacks() {
	callbacksMu.Lock()
	defer callbacksMu.Unlock()
	reloadCallbacks = nil
}

// ReloadableSections lists the config sections that take effect without a
// restart. Everything else is wired into components at startup.
var ReloadableSections = []string{"log_level"}

// detectChangedSections compares old and new configs and returns a list of changed sections.
func detectChangedSections(old, new *Config) []string {
	var changed []string

	if old.LogLevel != new.LogLevel {
		changed = append(changed, "log_level")
	}
	if old.LogFile != new.LogFile || old.LogRotation != new.LogRotation {
		changed = append(changed, "log_file")
	}
	if old.Practicum != new.Practicum {
		changed = append(changed, "practicum")
	}
	if old.Telegram != new.Telegram {
		changed = append(changed, "telegram")
	}
	if old.Poll != new.Poll {
		changed = append(changed, "poll")
	}
	if old.Notify != new.Notify {
		changed = append(changed, "notify")
	}
	if !reflect.DeepEqual(old.Daemon, new.Daemon) {
		changed = append(changed, "daemon")
	}

	return changed
}

// isReloadable checks if all changed sections are hot-reloadable.
func isReloadable(changedSections []string) bool {
	reloadableSet := make(map[string]bool)
	for _, s := range ReloadableSections {
		reloadableSet[s] = true
	}

	for _, section := range changedSections {
		if !reloadableSet[section] {
			return false
		}
	}

	return true
}

// notifyReload runs registered callbacks when anything changed.
func notifyReload(old, new *Config) {
	changedSections := detectChangedSections(old, new)
	if len(changedSections) == 0 {
		return
	}

	if !isReloadable(changedSections) {
		slog.Warn("config reload includes non-reloadable sections; some changes require daemon restart",
			"changed_sections", changedSections)
	}

	callbacksMu.RLock()
	callbacks := make([]ReloadFunc, len(reloadCallbacks))
	copy(callbacks, reloadCallbacks)
	callbacksMu.RUnlock()

	for _, fn := range callbacks {
		fn(old, new)
	}
}
