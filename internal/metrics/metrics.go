package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dairy_http_requests_total",
		Help: "Total HTTP requests by method, path and status code",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dairy_http_request_duration_seconds",
		Help:    "HTTP request latency by method and path",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	ReconciliationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dairy_reconciliation_runs_total",
		Help: "Reconciliation runs by outcome (success, partial, failed)",
	}, []string{"outcome"})

	ReconciliationFallbackRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dairy_reconciliation_fallback_retries_total",
		Help: "Per-record penalty updates attempted after a batch update failed",
	})

	PenaltyPropagationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dairy_penalty_propagation_failures_total",
		Help: "Milk approvals left with a pending penalty status after fallback",
	})

	CreditDisbursements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dairy_credit_disbursements_total",
		Help: "Credit requests disbursed",
	})

	CreditRepayments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dairy_credit_repayments_total",
		Help: "Credit repayments applied to the ledger",
	})

	CreditConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dairy_credit_conflicts_total",
		Help: "Optimistic concurrency conflicts on credit profiles",
	})
)
