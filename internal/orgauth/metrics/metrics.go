package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the organization gate.
type Metrics struct {
	Authorized         prometheus.Counter
	RejectedHeader     prometheus.Counter
	RejectedIdentity   prometheus.Counter
	RejectedMembership prometheus.Counter
}

// New creates and registers the gate metrics.
func New() *Metrics {
	return &Metrics{
		Authorized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_orgauth_authorized_total",
			Help: "Total number of requests that passed the organization gate",
		}),
		RejectedHeader: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_orgauth_rejected_header_total",
			Help: "Total number of requests rejected for a missing or malformed organization header",
		}),
		RejectedIdentity: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_orgauth_rejected_identity_total",
			Help: "Total number of requests rejected for a missing identity claim",
		}),
		RejectedMembership: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_orgauth_rejected_membership_total",
			Help: "Total number of requests rejected by membership verification",
		}),
	}
}

func (m *Metrics) IncAuthorized() {
	if m != nil {
		m.Authorized.Inc()
	}
}

func (m *Metrics) IncRejectedHeader() {
	if m != nil {
		m.RejectedHeader.Inc()
	}
}

func (m *Metrics) IncRejectedIdentity() {
	if m != nil {
		m.RejectedIdentity.Inc()
	}
}

func (m *Metrics) IncRejectedMembership() {
	if m != nil {
		m.RejectedMembership.Inc()
	}
}
