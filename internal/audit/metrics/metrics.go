// Package metrics exposes counters for the audit delivery pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	delivered prometheus.Counter
	failed    prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		delivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_audit_delivered_total",
			Help: "Audit records successfully written to the history service.",
		}),
		failed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_audit_failed_total",
			Help: "Audit records dropped after a failed history write.",
		}),
	}
}

func (m *Metrics) IncDelivered() {
	if m == nil {
		return
	}
	m.delivered.Inc()
}

func (m *Metrics) IncFailed() {
	if m == nil {
		return
	}
	m.failed.Inc()
}
