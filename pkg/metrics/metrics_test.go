package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventkit/pkg/metrics"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.Dispatched("PAYMENT_CONFIRMED", "EMAIL", "sent")
		m.SweepRun("expired", "ok")
		m.SweepItem("expired", "transitioned")
		m.PushAttempt("FCM", "sent")
	})
	assert.NoError(t, m.Register(nil))
}

func TestRegisterAndCount(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New()
	require.NoError(t, m.Register(reg))

	m.Dispatched("PAYMENT_CONFIRMED", "EMAIL", "sent")
	m.Dispatched("PAYMENT_CONFIRMED", "EMAIL", "sent")
	m.PushAttempt("APNS", "failed")

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]float64)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			byName[mf.GetName()] += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, byName["notifications_dispatched_total"])
	assert.Equal(t, 1.0, byName["push_fanout_total"])

	// Double registration fails.
	assert.Error(t, m.Register(reg))
}
