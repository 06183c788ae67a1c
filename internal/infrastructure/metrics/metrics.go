package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the money-movement engine.
type Metrics struct {
	MovementsCompleted *prometheus.CounterVec
	MovementsFailed    *prometheus.CounterVec
	MovementsReplayed  prometheus.Counter
	MovementDuration   prometheus.Histogram
	MovementAmount     prometheus.Histogram
	ConflictRetries    prometheus.Counter
}

// New creates and registers the engine metrics against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MovementsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankcore_movements_completed_total",
				Help: "Total number of completed money movements by type",
			},
			[]string{"type"},
		),
		MovementsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankcore_movements_failed_total",
				Help: "Total number of failed money movements by reason",
			},
			[]string{"type", "reason"},
		),
		MovementsReplayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_movements_replayed_total",
			Help: "Total number of idempotent replays served without re-execution",
		}),
		MovementDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bankcore_movement_duration_seconds",
			Help:    "Duration of money-movement operations",
			Buckets: prometheus.DefBuckets,
		}),
		MovementAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bankcore_movement_amount",
			Help:    "Movement amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		ConflictRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_movement_conflict_retries_total",
			Help: "Total number of movement attempts retried after backend conflicts",
		}),
	}
}
