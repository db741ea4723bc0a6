package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insightforge_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "insightforge_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	authDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insightforge_auth_denials_total",
		Help: "Count of denied authorization decisions by reason",
	}, []string{"reason"})

	kpiComputationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "insightforge_kpi_computation_duration_seconds",
		Help:    "Duration of KPI derivation including aggregate queries",
		Buckets: prometheus.DefBuckets,
	})

	aggregateFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insightforge_aggregate_fallbacks_total",
		Help: "Count of aggregate failures served as degraded defaults",
	}, []string{"aggregate"})

	leadTimeIntegrity = promauto.NewCounter(prometheus.CounterOpts{
		Name: "insightforge_lead_time_integrity_errors_total",
		Help: "Count of bookings excluded for check-in before booking date",
	})

	snapshotRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insightforge_snapshot_runs_total",
		Help: "Count of KPI snapshot worker runs by result",
	}, []string{"result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveAuthDenial increments the denial counter for the given reason,
// e.g. "capability" or "scope".
func ObserveAuthDenial(reason string) {
	authDenials.WithLabelValues(reason).Inc()
}

// ObserveKPIComputation records the duration of one KPI derivation.
func ObserveKPIComputation(duration time.Duration) {
	kpiComputationDuration.Observe(duration.Seconds())
}

// ObserveAggregateFallback records that an aggregate query failed and a
// degraded default was served in its place.
func ObserveAggregateFallback(aggregate string) {
	aggregateFallbacks.WithLabelValues(aggregate).Inc()
}

// ObserveLeadTimeIntegrity records bookings excluded from the lead-time
// average because their check-in preceded the booking date.
func ObserveLeadTimeIntegrity(count int64) {
	leadTimeIntegrity.Add(float64(count))
}

// ObserveSnapshotRun records the outcome of one snapshot worker pass.
func ObserveSnapshotRun(result string) {
	snapshotRuns.WithLabelValues(result).Inc()
}
