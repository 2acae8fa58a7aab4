package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	jobTransitionsTotal  *prometheus.CounterVec
	fileRelocationsTotal *prometheus.CounterVec
	auditIssuesTotal     *prometheus.CounterVec
	emailsSentTotal      *prometheus.CounterVec
	submissionsRejected  *prometheus.CounterVec
	statsCacheTotal      *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fablab_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fablab_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fablab_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		jobTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fablab_job_transitions_total",
			Help: "Committed job status transitions.",
		}, []string{"from", "to"})

		fileRelocationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fablab_file_relocations_total",
			Help: "File relocation outcomes between status directories.",
		}, []string{"state"})

		auditIssuesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fablab_audit_issues_total",
			Help: "Storage audit findings by kind.",
		}, []string{"issue"})

		emailsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fablab_emails_total",
			Help: "Outbound email attempts by result.",
		}, []string{"result"})

		submissionsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fablab_submissions_rejected_total",
			Help: "Submissions refused at intake by reason.",
		}, []string{"reason"})

		statsCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fablab_stats_cache_total",
			Help: "Diagnostics cache lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			jobTransitionsTotal,
			fileRelocationsTotal,
			auditIssuesTotal,
			emailsSentTotal,
			submissionsRejected,
			statsCacheTotal,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// JobTransitions counts committed transitions.
func JobTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return jobTransitionsTotal
}

// FileRelocations counts relocation outcomes.
func FileRelocations() *prometheus.CounterVec {
	RegisterMetrics()
	return fileRelocationsTotal
}

// AuditIssues counts audit findings.
func AuditIssues() *prometheus.CounterVec {
	RegisterMetrics()
	return auditIssuesTotal
}

// EmailsSent counts email results.
func EmailsSent() *prometheus.CounterVec {
	RegisterMetrics()
	return emailsSentTotal
}

// SubmissionsRejected counts refused uploads.
func SubmissionsRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsRejected
}

// StatsCache counts diagnostics cache hits and misses.
func StatsCache() *prometheus.CounterVec {
	RegisterMetrics()
	return statsCacheTotal
}
