package daemon

import (
	"errors"
	"testing"
	"time"

	"github.com/leefowlercu/hwnotify/internal/homework"
	"github.com/leefowlercu/hwnotify/internal/poller"
)

func TestPollerHealth_SuccessfulCycle(t *testing.T) {
	hm := NewHealthManager()
	observe := PollerHealth(hm)
	finished := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	observe(poller.CycleResult{
		ID:         "cycle-1",
		Outcome:    poller.OutcomeNotified,
		Message:    `Изменился статус проверки работы "hw01". Работа проверена: ревьюеру всё понравилось. Ура!`,
		Cursor:     1700000000,
		FinishedAt: finished,
	})

	got := hm.Status().Components[PollerComponent]
	if got.Status != ComponentStatusRunning {
		t.Errorf("Status = %s, want running", got.Status)
	}
	if !got.LastSuccess.Equal(finished) {
		t.Errorf("LastSuccess = %v, want %v", got.LastSuccess, finished)
	}
	if got.Details["outcome"] != "notified" || got.Details["cursor"] != int64(1700000000) {
		t.Errorf("Details = %v", got.Details)
	}
	if hm.Status().Status != "healthy" {
		t.Errorf("aggregate = %s, want healthy", hm.Status().Status)
	}
}

func TestPollerHealth_FailedCycleDegradesThenRecovers(t *testing.T) {
	hm := NewHealthManager()
	observe := PollerHealth(hm)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	observe(poller.CycleResult{ID: "c1", Outcome: poller.OutcomeUnchanged, FinishedAt: t0})
	observe(poller.CycleResult{
		ID:         "c2",
		Outcome:    poller.OutcomeFailed,
		Kind:       homework.KindTransport,
		Err:        &homework.TransportError{Err: errors.New("connection refused")},
		FinishedAt: t0.Add(time.Minute),
	})

	got := hm.Status().Components[PollerComponent]
	if got.Status != ComponentStatusDegraded {
		t.Errorf("Status = %s, want degraded", got.Status)
	}
	if got.Error == "" {
		t.Error("Error should carry the cycle failure")
	}
	if got.Details["kind"] != "transport" {
		t.Errorf("kind = %v, want transport", got.Details["kind"])
	}
	if !got.LastSuccess.Equal(t0) {
		t.Errorf("LastSuccess = %v, want last good cycle %v", got.LastSuccess, t0)
	}
	if hm.Status().Status != "degraded" {
		t.Errorf("aggregate = %s, want degraded", hm.Status().Status)
	}

	observe(poller.CycleResult{ID: "c3", Outcome: poller.OutcomeEmpty, FinishedAt: t0.Add(2 * time.Minute)})

	if hm.Status().Status != "healthy" {
		t.Errorf("aggregate = %s, want healthy after recovery", hm.Status().Status)
	}
}
