// Package metrics exposes counters for the history service write path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	recordsAdded   prometheus.Counter
	recordsDropped prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		recordsAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "thistory_records_added_total",
			Help: "History records accepted and persisted.",
		}),
		recordsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "thistory_records_dropped_total",
			Help: "History records accepted but dropped on a failed store write.",
		}),
	}
}

func (m *Metrics) IncAdded() {
	if m == nil {
		return
	}
	m.recordsAdded.Inc()
}

func (m *Metrics) IncDropped() {
	if m == nil {
		return
	}
	m.recordsDropped.Inc()
}
