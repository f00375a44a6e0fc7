package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is a
// valid no-op receiver, so wiring metrics stays optional everywhere.
type Metrics struct {
	dispatched *prometheus.CounterVec
	sweepRuns  *prometheus.CounterVec
	sweepItems *prometheus.CounterVec
	pushFanout *prometheus.CounterVec
}

// New creates the collector set.
func New() *Metrics {
	return &Metrics{
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Notification dispatch outcomes by trigger, channel and status.",
		}, []string{"trigger", "channel", "status"}),
		sweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sweep_runs_total",
			Help: "Sweep job invocations by job name and outcome.",
		}, []string{"job", "status"}),
		sweepItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sweep_items_total",
			Help: "Items processed by sweep jobs, by job name and per-item result.",
		}, []string{"job", "result"}),
		pushFanout: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "push_fanout_total",
			Help: "Per-device push attempts by provider and status.",
		}, []string{"provider", "status"}),
	}
}

// Register registers all collectors with the given registerer, defaulting to
// the global prometheus registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	if m == nil {
		return nil
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{m.dispatched, m.sweepRuns, m.sweepItems, m.pushFanout} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Dispatched counts one dispatch outcome.
func (m *Metrics) Dispatched(trigger, channel, status string) {
	if m == nil {
		return
	}
	m.dispatched.WithLabelValues(trigger, channel, status).Inc()
}

// SweepRun counts one sweep invocation.
func (m *Metrics) SweepRun(job, status string) {
	if m == nil {
		return
	}
	m.sweepRuns.WithLabelValues(job, status).Inc()
}

// SweepItem counts one item handled by a sweep job.
func (m *Metrics) SweepItem(job, result string) {
	if m == nil {
		return
	}
	m.sweepItems.WithLabelValues(job, result).Inc()
}

// PushAttempt counts one per-device push attempt.
func (m *Metrics) PushAttempt(provider, status string) {
	if m == nil {
		return
	}
	m.pushFanout.WithLabelValues(provider, status).Inc()
}
