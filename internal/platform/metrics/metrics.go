package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	AuditEntriesAppended prometheus.Counter
	AuditEntriesDeleted  prometheus.Counter
	PoliciesApplied      prometheus.Counter
	PolicyApplyFailures  prometheus.Counter
	LockoutsTriggered    prometheus.Counter
	RequestLatency       *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		AuditEntriesAppended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "peopleops_audit_entries_appended_total",
			Help: "Total number of audit ledger entries appended",
		}),
		AuditEntriesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "peopleops_audit_entries_deleted_total",
			Help: "Total number of audit ledger entries removed by retention cleanup",
		}),
		PoliciesApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "peopleops_policies_applied_total",
			Help: "Total number of successful mixed-vacation policy applications",
		}),
		PolicyApplyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "peopleops_policy_apply_failures_total",
			Help: "Total number of failed mixed-vacation policy applications",
		}),
		LockoutsTriggered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "peopleops_lockouts_triggered_total",
			Help: "Total number of account lockouts triggered",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "peopleops_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
