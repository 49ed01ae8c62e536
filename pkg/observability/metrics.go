package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for the notebook runtime.
type Metrics struct {
	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration prometheus.Histogram
	KernelRestarts    prometheus.Counter
	SnapshotsTotal    prometheus.Counter
	OpenDocuments     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with the given
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ExecutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quire",
			Name:      "executions_total",
			Help:      "Cell executions submitted to a kernel, by outcome.",
		}, []string{"outcome"}),
		ExecutionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quire",
			Name:      "execution_duration_seconds",
			Help:      "Wall-clock duration of cell executions.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}),
		KernelRestarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quire",
			Name:      "kernel_restarts_total",
			Help:      "Kernel restarts requested through the control surface.",
		}),
		SnapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quire",
			Name:      "snapshots_total",
			Help:      "Document snapshots written to the snapshot store.",
		}),
		OpenDocuments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quire",
			Name:      "open_documents",
			Help:      "Documents currently open in the workspace.",
		}),
	}
	reg.MustRegister(
		m.ExecutionsTotal,
		m.ExecutionDuration,
		m.KernelRestarts,
		m.SnapshotsTotal,
		m.OpenDocuments,
	)
	return m
}

// ObserveExecution records one finished execution attempt.
func (m *Metrics) ObserveExecution(start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ExecutionsTotal.WithLabelValues(outcome).Inc()
	m.ExecutionDuration.Observe(time.Since(start).Seconds())
}
