package daemon

import (
	"sync"
	"time"
)

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	// Status is the current health state.
	Status ComponentStatus `json:"status"`

	// Error contains the last error message when Status is not running.
	Error string `json:"error,omitempty"`

	// LastChecked is when the health was last evaluated.
	LastChecked time.Time `json:"last_checked"`

	// Since is when the component entered the current state.
	Since time.Time `json:"since,omitempty"`

	// LastSuccess is when the component last successfully reported healthy.
	LastSuccess time.Time `json:"last_success,omitempty"`

	// Details carries optional, non-sensitive diagnostic data.
	Details map[string]any `json:"details,omitempty"`

	// Stale is set when the component has not reported within the
	// manager's stale window.
	Stale bool `json:"stale,omitempty"`
}

// IsHealthy returns true if the component health indicates healthy operation.
func (h ComponentHealth) IsHealthy() bool {
	return h.Status.IsHealthy()
}

// Aggregate health values reported by HealthStatus.Status.
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// HealthStatus is the /readyz response body.
type HealthStatus struct {
	// Status is HealthHealthy, HealthDegraded or HealthUnhealthy.
	Status string `json:"status"`

	// Ready is false only when a component has failed or stopped.
	// A degraded or stale poller still counts as ready.
	Ready bool `json:"ready"`

	Uptime     time.Duration              `json:"uptime"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// HealthManager aggregates per-component health. It is safe for concurrent use.
type HealthManager struct {
	mu         sync.RWMutex
	components map[string]ComponentHealth
	startTime  time.Time
	staleAfter time.Duration
	now        func() time.Time
}

// HealthOption configures a HealthManager.
type HealthOption func(*HealthManager)

// WithStaleAfter marks components stale when LastChecked is older than d.
// Zero disables staleness.
func WithStaleAfter(d time.Duration) HealthOption {
	return func(m *HealthManager) {
		m.staleAfter = d
	}
}

// WithHealthClock replaces time.Now.
func WithHealthClock(now func() time.Time) HealthOption {
	return func(m *HealthManager) {
		m.now = now
	}
}

// NewHealthManager creates a HealthManager.
func NewHealthManager(opts ...HealthOption) *HealthManager {
	m := &HealthManager{
		components: make(map[string]ComponentHealth),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.startTime = m.now()
	return m
}

// UpdateComponent records health for name. Since is carried over while the
// status stays the same, and LastSuccess is kept until a newer one arrives.
func (m *HealthManager) UpdateComponent(name string, health ComponentHealth) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if health.LastChecked.IsZero() {
		health.LastChecked = m.now()
	}
	if prev, ok := m.components[name]; ok {
		if health.Since.IsZero() && prev.Status == health.Status {
			health.Since = prev.Since
		}
		if health.LastSuccess.IsZero() {
			health.LastSuccess = prev.LastSuccess
		}
	}
	if health.Since.IsZero() {
		health.Since = health.LastChecked
	}
	health.Stale = false
	m.components[name] = health
}

// UpdateComponentHealth applies a batch of component updates.
func (m *HealthManager) UpdateComponentHealth(statuses map[string]ComponentHealth) {
	for name, health := range statuses {
		m.UpdateComponent(name, health)
	}
}

// RemoveComponent stops tracking name.
func (m *HealthManager) RemoveComponent(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.components, name)
}

// Status returns the aggregate health.
func (m *HealthManager) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	status := HealthStatus{
		Status:     HealthHealthy,
		Ready:      true,
		Uptime:     now.Sub(m.startTime),
		Components: make(map[string]ComponentHealth, len(m.components)),
	}

	for name, health := range m.components {
		if m.staleAfter > 0 && now.Sub(health.LastChecked) > m.staleAfter {
			health.Stale = true
		}
		status.Components[name] = health

		switch {
		case health.Status == ComponentStatusFailed || health.Status == ComponentStatusStopped:
			status.Status = HealthUnhealthy
			status.Ready = false
		case (!health.IsHealthy() || health.Stale) && status.Status == HealthHealthy:
			status.Status = HealthDegraded
		}
	}

	return status
}
