package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records reservation and craft activity.
type EngineMetrics struct {
	reservations      *prometheus.CounterVec
	craftTransitions  *prometheus.CounterVec
	insufficientStock *prometheus.CounterVec
	outboxBatch       *prometheus.HistogramVec
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	reservations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reservations_total",
		Help: "Reservation operations by outcome.",
	}, []string{"operation", "outcome"})
	craftTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "craft_transitions_total",
		Help: "Craft status transitions by target status.",
	}, []string{"to"})
	insufficientStock := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "insufficient_stock_total",
		Help: "Operations rejected for insufficient available stock.",
	}, []string{"operation"})
	outboxBatch := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_publish_duration_seconds",
		Help:    "Duration of outbox publish batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})
	reg.MustRegister(reservations, craftTransitions, insufficientStock, outboxBatch)
	return &EngineMetrics{
		reservations:      reservations,
		craftTransitions:  craftTransitions,
		insufficientStock: insufficientStock,
		outboxBatch:       outboxBatch,
	}
}

// IncReservation increments the reservation counter for the operation and outcome.
func (e *EngineMetrics) IncReservation(operation, outcome string) {
	if e == nil || e.reservations == nil {
		return
	}
	e.reservations.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// IncCraftTransition increments the transition counter for the target status.
func (e *EngineMetrics) IncCraftTransition(to string) {
	if e == nil || e.craftTransitions == nil {
		return
	}
	e.craftTransitions.WithLabelValues(normalizeLabel(to)).Inc()
}

// IncInsufficientStock increments the rejection counter for the operation.
func (e *EngineMetrics) IncInsufficientStock(operation string) {
	if e == nil || e.insufficientStock == nil {
		return
	}
	e.insufficientStock.WithLabelValues(normalizeLabel(operation)).Inc()
}

// ObservePublishBatch records the duration of an outbox publish batch.
func (e *EngineMetrics) ObservePublishBatch(topic string, duration time.Duration) {
	if e == nil || e.outboxBatch == nil {
		return
	}
	e.outboxBatch.WithLabelValues(normalizeLabel(topic)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
