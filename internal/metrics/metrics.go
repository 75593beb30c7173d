// Package metrics exposes Prometheus counters for secret operations.
// Registration is lazy and process-wide; call Init once at startup when
// metrics are enabled.
package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	secretOpsTotal    *prometheus.CounterVec
	decryptTotal      *prometheus.CounterVec
	rateLimitedTotal  prometheus.Counter
	auditEntriesTotal *prometheus.CounterVec
	importRowsTotal   *prometheus.CounterVec

	metricsOnce       sync.Once
	metricsRegistered atomic.Bool
)

// Init initializes all Prometheus metrics.
func Init() {
	metricsOnce.Do(func() {
		secretOpsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credstore_secret_operations_total",
				Help: "Total number of secret store operations",
			},
			[]string{"operation", "status"},
		)

		decryptTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credstore_decrypt_total",
				Help: "Total number of plaintext disclosure attempts",
			},
			[]string{"status"},
		)

		rateLimitedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credstore_rate_limited_total",
				Help: "Total number of decrypt requests refused by the rate limiter",
			},
		)

		auditEntriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credstore_audit_entries_total",
				Help: "Total number of audit log entries written",
			},
			[]string{"action"},
		)

		importRowsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credstore_import_rows_total",
				Help: "Total number of YAML import rows by outcome",
			},
			[]string{"outcome"},
		)

		metricsRegistered.Store(true)
	})
}

// RecordOperation records a secret store operation outcome.
func RecordOperation(operation, status string) {
	if !metricsRegistered.Load() {
		return
	}
	secretOpsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDecrypt records a plaintext disclosure attempt.
func RecordDecrypt(status string) {
	if !metricsRegistered.Load() {
		return
	}
	decryptTotal.WithLabelValues(status).Inc()
}

// RecordRateLimited records a rate limiter refusal.
func RecordRateLimited() {
	if !metricsRegistered.Load() {
		return
	}
	rateLimitedTotal.Inc()
}

// RecordAuditEntry records one written audit entry.
func RecordAuditEntry(action string) {
	if !metricsRegistered.Load() {
		return
	}
	auditEntriesTotal.WithLabelValues(action).Inc()
}

// RecordImportRow records one YAML import row outcome
// (imported, updated or failed).
func RecordImportRow(outcome string) {
	if !metricsRegistered.Load() {
		return
	}
	importRowsTotal.WithLabelValues(outcome).Inc()
}
