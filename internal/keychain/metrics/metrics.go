package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the secure entry store.
// Tracks operation counts, failures, and critical path durations.
type Metrics struct {
	ValuesStored   prometheus.Counter
	ValuesRemoved  prometheus.Counter
	OperationFails prometheus.Counter
	GetDuration    prometheus.Histogram
	SetDuration    prometheus.Histogram
}

// New creates a new Metrics instance with all store metrics registered.
func New() *Metrics {
	return &Metrics{
		ValuesStored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "biovault_values_stored_total",
			Help: "Total number of values successfully stored",
		}),
		ValuesRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "biovault_values_removed_total",
			Help: "Total number of remove operations completed",
		}),
		OperationFails: promauto.NewCounter(prometheus.CounterOpts{
			Name: "biovault_store_failures_total",
			Help: "Total number of store operations that returned an error",
		}),
		GetDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "biovault_get_duration_seconds",
			Help:    "Duration of Get operations, including any biometric challenge",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 30},
		}),
		SetDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "biovault_set_duration_seconds",
			Help:    "Duration of Set operations, including the validation marker write",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 30},
		}),
	}
}

// IncrementStored records a successful value write.
func (m *Metrics) IncrementStored() {
	if m == nil {
		return
	}
	m.ValuesStored.Inc()
}

// IncrementRemoved records a completed remove.
func (m *Metrics) IncrementRemoved() {
	if m == nil {
		return
	}
	m.ValuesRemoved.Inc()
}

// IncrementFailure records a failed store operation.
func (m *Metrics) IncrementFailure() {
	if m == nil {
		return
	}
	m.OperationFails.Inc()
}

// ObserveGet records the duration of a Get operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveGet(start time.Time) {
	if m == nil {
		return
	}
	m.GetDuration.Observe(time.Since(start).Seconds())
}

// ObserveSet records the duration of a Set operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSet(start time.Time) {
	if m == nil {
		return
	}
	m.SetDuration.Observe(time.Since(start).Seconds())
}
