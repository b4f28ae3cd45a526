package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor serves reg with OpenMetrics negotiation enabled.
func HandlerFor(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// RecordPoll records a review API poll request. An empty result means success.
func RecordPoll(result string, duration time.Duration) {
	if result == "" {
		result = "ok"
	}
	PollRequestsTotal.WithLabelValues(result).Inc()
	PollDuration.Observe(duration.Seconds())
}

// RecordCycle records a completed poll cycle.
func RecordCycle(outcome, kind string, cursor int64) {
	CyclesTotal.WithLabelValues(outcome, kind).Inc()
	PollCursor.Set(float64(cursor))
	LastCycleTime.SetToCurrentTime()
}

// RecordNotification records a notification delivery attempt.
func RecordNotification(err error) {
	result := "delivered"
	if err != nil {
		result = "failed"
	}
	NotificationsTotal.WithLabelValues(result).Inc()
}

// RecordRestart records a supervised component restart.
func RecordRestart(component string) {
	ComponentRestartsTotal.WithLabelValues(component).Inc()
}
