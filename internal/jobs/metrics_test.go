package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("lookups:refresh").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("lookups:refresh").End(boom), boom)
	m.SetItems("lookups:refresh", 42)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("lookups:refresh", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("lookups:refresh", "failure")))
	require.Equal(t, 42.0, testutil.ToFloat64(m.items.WithLabelValues("lookups:refresh")))
}

func TestNilMetricsTrackerPassesError(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("x").End(boom), boom)
	m.SetItems("x", 1)
}
