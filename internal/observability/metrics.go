package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	metricFallbacksTotal  *prometheus.CounterVec
	analyticsSeconds      *prometheus.HistogramVec
	dashboardCacheTotal   *prometheus.CounterVec
	dashboardInvalidTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors exported by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insights_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "insights_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insights_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		metricFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_metric_fallbacks_total",
			Help: "Dashboard sub-metrics that fell back to their default value.",
		}, []string{"metric"})

		analyticsSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analytics_compute_seconds",
			Help:    "Time spent computing teacher analytics.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"})

		dashboardCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_cache_lookups_total",
			Help: "Dashboard cache lookups by result.",
		}, []string{"result"})

		dashboardInvalidTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_cache_invalidations_total",
			Help: "Dashboard cache evictions triggered by teacher activity events.",
		}, []string{"source"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			metricFallbacksTotal,
			analyticsSeconds,
			dashboardCacheTotal,
			dashboardInvalidTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// MetricFallbacks counts sub-metrics replaced by their default after a failure.
func MetricFallbacks() *prometheus.CounterVec {
	RegisterMetrics()
	return metricFallbacksTotal
}

// AnalyticsDuration records how long each analytics operation takes.
func AnalyticsDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return analyticsSeconds
}

// DashboardCacheLookups counts cache hits and misses.
func DashboardCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return dashboardCacheTotal
}

// DashboardInvalidations counts cache evictions per event source.
func DashboardInvalidations() *prometheus.CounterVec {
	RegisterMetrics()
	return dashboardInvalidTotal
}
