package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.MovementsCompleted.WithLabelValues("transfer").Inc()
	m.MovementsFailed.WithLabelValues("send", "insufficient_funds").Inc()
	m.MovementsReplayed.Inc()
	m.MovementDuration.Observe(0.05)
	m.MovementAmount.Observe(100)
	m.ConflictRetries.Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(families) != 6 {
		t.Errorf("expected 6 metric families, got %d", len(families))
	}
}

func TestNewPanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	New(reg)
}
