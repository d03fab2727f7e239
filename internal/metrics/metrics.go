// Package metrics exposes Prometheus instrumentation for the pipeline.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for the pipeline
type Metrics struct {
	// Email counters
	EmailsSentTotal    *prometheus.CounterVec
	EmailsFailedTotal  *prometheus.CounterVec
	EmailsBouncedTotal *prometheus.CounterVec

	// Discovery counters and quota gauge
	ContactsDiscoveredTotal *prometheus.CounterVec
	ProfileVisitsTotal      prometheus.Counter
	QuotaRemaining          prometheus.Gauge

	// Freshness verification outcomes
	FreshnessChecksTotal *prometheus.CounterVec

	// Content generation per model
	GenerationsTotal *prometheus.CounterVec

	// Outreach ledger gauges
	OutreachByStatus *prometheus.GaugeVec

	// System gauges
	UptimeSeconds     prometheus.Gauge
	Goroutines        prometheus.Gauge
	DatabaseSizeBytes prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		EmailsSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobpipe_emails_sent_total",
				Help: "Total number of successfully delivered outreach emails",
			},
			[]string{"stage"},
		),
		EmailsFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobpipe_emails_failed_total",
				Help: "Total number of failed send attempts",
			},
			[]string{"stage", "error_type"},
		),
		EmailsBouncedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobpipe_emails_bounced_total",
				Help: "Total number of hard-bounced outreach emails",
			},
			[]string{"stage"},
		),

		ContactsDiscoveredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobpipe_contacts_discovered_total",
				Help: "Total number of recruiter contacts discovered",
			},
			[]string{"confidence"},
		),
		ProfileVisitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jobpipe_profile_visits_total",
				Help: "Total number of quota-consuming profile visits",
			},
		),
		QuotaRemaining: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "jobpipe_search_quota_remaining",
				Help: "Contact search credits remaining today",
			},
		),

		FreshnessChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobpipe_freshness_checks_total",
				Help: "Total number of recruiter freshness checks by outcome",
			},
			[]string{"outcome"},
		),

		GenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobpipe_generations_total",
				Help: "Total number of content generation calls",
			},
			[]string{"model", "result"},
		),

		OutreachByStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "jobpipe_outreach_records",
				Help: "Outreach ledger rows by status",
			},
			[]string{"status"},
		),

		UptimeSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "jobpipe_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
		Goroutines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "jobpipe_goroutines",
				Help: "Number of active goroutines",
			},
		),
		DatabaseSizeBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "jobpipe_database_size_bytes",
				Help: "Sqlite database file size in bytes",
			},
		),

		registry: reg,
	}

	reg.MustRegister(
		m.EmailsSentTotal,
		m.EmailsFailedTotal,
		m.EmailsBouncedTotal,
		m.ContactsDiscoveredTotal,
		m.ProfileVisitsTotal,
		m.QuotaRemaining,
		m.FreshnessChecksTotal,
		m.GenerationsTotal,
		m.OutreachByStatus,
		m.UptimeSeconds,
		m.Goroutines,
		m.DatabaseSizeBytes,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetGlobal sets the global metrics instance
func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

// Global returns the global metrics instance, or nil when metrics are
// disabled. All helpers below are no-ops in that case.
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// IncEmailsSent increments the delivered email counter
func IncEmailsSent(stage string) {
	if m := Global(); m != nil {
		m.EmailsSentTotal.WithLabelValues(stage).Inc()
	}
}

// IncEmailsFailed increments the failed send counter
func IncEmailsFailed(stage, errorType string) {
	if m := Global(); m != nil {
		m.EmailsFailedTotal.WithLabelValues(stage, errorType).Inc()
	}
}

// IncEmailsBounced increments the hard bounce counter
func IncEmailsBounced(stage string) {
	if m := Global(); m != nil {
		m.EmailsBouncedTotal.WithLabelValues(stage).Inc()
	}
}

// IncContactsDiscovered increments the discovered contact counter
func IncContactsDiscovered(confidence string) {
	if m := Global(); m != nil {
		m.ContactsDiscoveredTotal.WithLabelValues(confidence).Inc()
	}
}

// IncProfileVisits increments the quota-consuming visit counter
func IncProfileVisits() {
	if m := Global(); m != nil {
		m.ProfileVisitsTotal.Inc()
	}
}

// SetQuotaRemaining updates the remaining search credit gauge
func SetQuotaRemaining(n int) {
	if m := Global(); m != nil {
		m.QuotaRemaining.Set(float64(n))
	}
}

// IncFreshnessChecks increments the freshness outcome counter
func IncFreshnessChecks(outcome string) {
	if m := Global(); m != nil {
		m.FreshnessChecksTotal.WithLabelValues(outcome).Inc()
	}
}

// IncGenerations increments the content generation counter
func IncGenerations(model, result string) {
	if m := Global(); m != nil {
		m.GenerationsTotal.WithLabelValues(model, result).Inc()
	}
}
