// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
	CacheSets   *prometheus.CounterVec

	// Provider metrics
	ProviderCalls   *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec

	// Gateway metrics
	PriceDeviation   prometheus.Histogram
	RoutesBuilt      *prometheus.CounterVec
	SecurityRejected prometheus.Counter
	RiskScore        prometheus.Histogram
	AlertsEmitted    *prometheus.CounterVec
	EventsDropped    *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	DependencyHealthy *prometheus.GaugeVec
	OverallHealthy    prometheus.Gauge
	LastHealthCheck   prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "chain_gateway"
	}

	return &Metrics{
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits by category",
		}, []string{"category"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses (absent or expired) by category",
		}, []string{"category"}),
		CacheSets: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "sets_total",
			Help:      "Total number of cache writes by category",
		}, []string{"category"}),

		ProviderCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Total number of upstream calls by kind, source and outcome",
		}, []string{"kind", "source", "outcome"}),
		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_latency_seconds",
			Help:      "Upstream call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "source"}),

		PriceDeviation: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "price_deviation_percent",
			Help:      "Mean absolute deviation of price sources from the aggregated price",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25},
		}),
		RoutesBuilt: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "routes_built_total",
			Help:      "Total number of route constructions by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		SecurityRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "security_rejections_total",
			Help:      "Total number of routes rejected by the security validator",
		}),
		RiskScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "route_risk_score",
			Help:      "Risk score of audited routes",
			Buckets:   []float64{0, 20, 40, 60, 80, 100, 120},
		}),
		AlertsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "alerts_total",
			Help:      "Total number of alerts emitted by severity",
		}, []string{"severity"}),
		EventsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "events_dropped_total",
			Help:      "Events dropped because a subscriber was not keeping up",
		}, []string{"subscriber"}),

		HTTPRequests: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		DependencyHealthy: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "dependency_up",
			Help:      "1 if the oracle or bridge passed its last probe",
		}, []string{"kind", "name"}),
		OverallHealthy: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "status",
			Help:      "Overall status: 2 healthy, 1 degraded, 0 unhealthy",
		}),
		LastHealthCheck: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_check_timestamp",
			Help:      "Unix timestamp of the last health probe round",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(category string, hit bool) {
	if hit {
		DefaultMetrics.CacheHits.WithLabelValues(category).Inc()
		return
	}
	DefaultMetrics.CacheMisses.WithLabelValues(category).Inc()
}

// RecordCacheSet records a cache write.
func RecordCacheSet(category string) {
	DefaultMetrics.CacheSets.WithLabelValues(category).Inc()
}

// RecordProviderCall records an upstream call outcome and latency.
func RecordProviderCall(kind, source string, seconds float64, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	DefaultMetrics.ProviderCalls.WithLabelValues(kind, source, outcome).Inc()
	DefaultMetrics.ProviderLatency.WithLabelValues(kind, source).Observe(seconds)
}

// RecordPriceDeviation records the deviation of an aggregated price.
func RecordPriceDeviation(pct float64) {
	DefaultMetrics.PriceDeviation.Observe(pct)
}

// RecordRouteBuilt records a route construction attempt.
func RecordRouteBuilt(strategy string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	DefaultMetrics.RoutesBuilt.WithLabelValues(strategy, outcome).Inc()
}

// RecordAudit records a security audit outcome.
func RecordAudit(score int, approved bool) {
	DefaultMetrics.RiskScore.Observe(float64(score))
	if !approved {
		DefaultMetrics.SecurityRejected.Inc()
	}
}

// RecordAlert records an emitted alert.
func RecordAlert(severity string) {
	DefaultMetrics.AlertsEmitted.WithLabelValues(severity).Inc()
}

// RecordEventDropped records an event a subscriber could not accept.
func RecordEventDropped(subscriber string) {
	DefaultMetrics.EventsDropped.WithLabelValues(subscriber).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(method, route, status string, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(method, route, status).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordDependencyHealth records a probe result for an oracle or bridge.
func RecordDependencyHealth(kind, name string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	DefaultMetrics.DependencyHealthy.WithLabelValues(kind, name).Set(v)
}

// RecordOverallHealth records the overall status and probe time.
func RecordOverallHealth(status string, unixSeconds float64) {
	v := 0.0
	switch status {
	case "healthy":
		v = 2
	case "degraded":
		v = 1
	}
	DefaultMetrics.OverallHealthy.Set(v)
	DefaultMetrics.LastHealthCheck.Set(unixSeconds)
}
