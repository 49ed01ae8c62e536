package observability_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quire/pkg/observability"
)

func TestMetrics_ObserveExecution(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	start := time.Now()
	m.ObserveExecution(start, nil)
	m.ObserveExecution(start, nil)
	m.ObserveExecution(start, errors.New("NameError"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExecutionsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExecutionsTotal.WithLabelValues("error")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.ExecutionDuration))
}

func TestMetrics_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewMetrics(reg)

	require.Panics(t, func() {
		observability.NewMetrics(reg)
	})
}

func TestMetrics_GaugeAndCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	m.OpenDocuments.Set(3)
	m.KernelRestarts.Inc()
	m.SnapshotsTotal.Add(2)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.OpenDocuments))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KernelRestarts))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SnapshotsTotal))
}
