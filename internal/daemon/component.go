package daemon

import "context"

// ComponentStatus represents the health state of a component.
type ComponentStatus string

const (
	// ComponentStatusRunning indicates the component is operating normally.
	ComponentStatusRunning ComponentStatus = "running"

	// ComponentStatusFailed indicates the component exited with an error and is waiting to restart.
	ComponentStatusFailed ComponentStatus = "failed"

	// ComponentStatusDegraded indicates the component runs but its last unit of work failed.
	ComponentStatusDegraded ComponentStatus = "degraded"

	// ComponentStatusStopped indicates the component has been intentionally stopped.
	ComponentStatusStopped ComponentStatus = "stopped"
)

// IsHealthy returns true if the component status indicates healthy operation.
func (s ComponentStatus) IsHealthy() bool {
	return s == ComponentStatusRunning
}

// RunFunc runs a component until ctx is cancelled.
// Returning before cancellation is treated as a failure and the component is restarted.
type RunFunc func(ctx context.Context) error

// component is a named long-running unit registered with the daemon.
type component struct {
	name string
	run  RunFunc
}

// HealthUpdater receives component health changes.
type HealthUpdater interface {
	UpdateComponentHealth(statuses map[string]ComponentHealth)
}
