package service

import (
	"github.com/dalemusser/taskhub/internal/app/policy/workspacepolicy"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for authorization decisions and
// membership commits. A nil *Metrics records nothing.
type Metrics struct {
	AuthzDecisions       *prometheus.CounterVec
	MembershipCASRetries prometheus.Counter
}

// NewMetrics creates the collectors and registers them with registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		AuthzDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhub_authz_decisions_total",
				Help: "Total number of workspace authorization decisions",
			},
			[]string{"operation", "decision"},
		),
		MembershipCASRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "taskhub_membership_cas_retries_total",
				Help: "Total number of membership commits retried after a version conflict",
			},
		),
	}

	registry.MustRegister(
		m.AuthzDecisions,
		m.MembershipCASRetries,
	)

	return m
}

func (m *Metrics) decision(op workspacepolicy.Operation, allowed bool) {
	if m == nil {
		return
	}
	d := "deny"
	if allowed {
		d = "allow"
	}
	m.AuthzDecisions.WithLabelValues(op.String(), d).Inc()
}

func (m *Metrics) casRetry() {
	if m == nil {
		return
	}
	m.MembershipCASRetries.Inc()
}
