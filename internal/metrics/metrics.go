// Package metrics provides Prometheus metrics for the hwnotify daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "hwnotify"
)

// Poll metrics track requests to the review-status API.
var (
	// PollRequestsTotal is the total number of poll requests by outcome kind.
	PollRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_requests_total",
		Help:      "Total number of review API poll requests",
	}, []string{"result"})

	// PollDuration is a histogram of poll request duration in seconds.
	PollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "poll_duration_seconds",
		Help:      "Duration of review API poll requests in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	})

	// PollCursor is the current lower bound of the query window.
	PollCursor = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "poll_cursor_seconds",
		Help:      "Current from_date cursor sent to the review API",
	})
)

// Cycle metrics track poll loop iterations.
var (
	// CyclesTotal is the total number of poll cycles by outcome and failure kind.
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycles_total",
		Help:      "Total number of poll cycles",
	}, []string{"outcome", "kind"})

	// LastCycleTime is the unix timestamp of the last completed cycle.
	LastCycleTime = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_cycle_time_seconds",
		Help:      "Unix timestamp of the last completed poll cycle",
	})
)

// Notification metrics track chat deliveries.
var (
	// NotificationsTotal is the total number of delivery attempts by result.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of notification delivery attempts",
	}, []string{"result"})
)

// Daemon metrics track daemon health and uptime.
var (
	// DaemonInfo provides daemon version and build information.
	DaemonInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "daemon_info",
		Help:      "Daemon version and build information",
	}, []string{"version", "git_commit", "go_version"})

	// DaemonStartTime is the unix timestamp when the daemon started.
	DaemonStartTime = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "daemon_start_time_seconds",
		Help:      "Unix timestamp when the daemon started",
	})

	// ComponentStatus tracks the health status of daemon components.
	ComponentStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "component_status",
		Help:      "Health status of daemon components (1=healthy, 0=unhealthy)",
	}, []string{"component"})

	// CollectErrorsTotal counts collections in which a provider reported unhealthy.
	CollectErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collect_errors_total",
		Help:      "Total number of collections in which a component reported unhealthy",
	}, []string{"component"})

	// ComponentRestartsTotal counts supervisor restarts after a component exits early.
	ComponentRestartsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "component_restarts_total",
		Help:      "Total number of times a supervised component was restarted",
	}, []string{"component"})
)
