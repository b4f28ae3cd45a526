package daemon

import (
	"github.com/leefowlercu/hwnotify/internal/poller"
)

// PollerComponent is the health and supervision name of the poll loop.
const PollerComponent = "poller"

// PollerHealth returns an observer that mirrors each poll cycle into the
// poller component health. A failed cycle degrades the component; the next
// successful cycle restores it.
func PollerHealth(updater HealthUpdater) poller.Observer {
	return func(res poller.CycleResult) {
		health := ComponentHealth{
			Status:      ComponentStatusRunning,
			LastChecked: res.FinishedAt,
			Details: map[string]any{
				"cycle_id": res.ID,
				"outcome":  string(res.Outcome),
				"cursor":   res.Cursor,
			},
		}

		if res.Failed() {
			health.Status = ComponentStatusDegraded
			health.Details["kind"] = string(res.Kind)
			if res.Err != nil {
				health.Error = res.Err.Error()
			}
		} else {
			health.LastSuccess = res.FinishedAt
		}

		updater.UpdateComponentHealth(map[string]ComponentHealth{PollerComponent: health})
	}
}
