// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DeviceMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devreg",
		Name:      "device_mutations_total",
		Help:      "Device registry mutations by action and outcome.",
	}, []string{"action", "outcome"})

	AuditEntries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devreg",
		Name:      "audit_entries_total",
		Help:      "Audit log entries written, by action.",
	}, []string{"action"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devreg",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "devreg",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	PasswordResetRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devreg",
		Name:      "password_reset_requests_total",
		Help:      "Password reset steps by stage and outcome.",
	}, []string{"stage", "outcome"})
)

const (
	OutcomeSuccess   = "success"
	OutcomeDuplicate = "duplicate"
	OutcomeNotFound  = "not_found"
	OutcomeNoop      = "noop"
	OutcomeError     = "error"
)

func init() {
	prometheus.MustRegister(
		DeviceMutations,
		AuditEntries,
		HTTPRequests,
		HTTPRequestDuration,
		PasswordResetRequests,
	)
}
