// Package metrics exposes Prometheus instrumentation for store
// operations. Collectors are scoped to the registerer handed to New,
// so embedding applications keep control of their metric namespace. A
// nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the store's operation collectors.
type Metrics struct {
	// OperationsTotal counts store operations by operation name and
	// outcome status ("success" or "error").
	OperationsTotal *prometheus.CounterVec

	// OperationDuration tracks operation duration by operation name.
	OperationDuration *prometheus.HistogramVec
}

// New registers the store collectors with reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settee_operations_total",
				Help: "Total number of store operations",
			},
			[]string{"operation", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "settee_operation_duration_seconds",
				Help:    "Duration of store operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Observe records one finished operation: its outcome on the counter
// and its elapsed time on the histogram.
func (m *Metrics) Observe(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.OperationsTotal.WithLabelValues(operation, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
