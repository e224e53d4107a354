// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	ObservationsFetched  prometheus.Counter
	ObservationsInserted prometheus.Counter
	CoinsUpdated         prometheus.Counter
	IngestionErrors      *prometheus.CounterVec

	// Discovery metrics
	CoinsDiscovered prometheus.Counter
	DiscoveryPages  prometheus.Counter

	// HTTP API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Aggregation metrics
	AggregationQueryDuration *prometheus.HistogramVec
	AggregationQueryErrors   *prometheus.CounterVec

	// CoinGecko metrics
	CoinGeckoCallLatency *prometheus.HistogramVec
	CoinGeckoCallErrors  *prometheus.CounterVec

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
	DBConnections   *prometheus.GaugeVec

	// Health metrics
	LastSuccessfulUpdate    prometheus.Gauge
	LastSuccessfulDiscovery prometheus.Gauge
	UptimeSeconds           prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "memecoin_radar"
	}

	return &Metrics{
		// Ingestion metrics
		ObservationsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "observations_fetched_total",
			Help:      "Total number of market observations fetched from CoinGecko",
		}),
		ObservationsInserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "observations_inserted_total",
			Help:      "Total number of market observations stored to database",
		}),
		CoinsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "coins_updated_total",
			Help:      "Total number of coins refreshed by the updater",
		}),
		IngestionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "errors_total",
			Help:      "Total number of ingestion errors by stage",
		}, []string{"stage"}),

		// Discovery metrics
		CoinsDiscovered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "coins_discovered_total",
			Help:      "Total number of coins added to the registry",
		}),
		DiscoveryPages: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "pages_total",
			Help:      "Total number of market listing pages fetched",
		}),

		// HTTP API metrics
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint and status",
		}, []string{"endpoint", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		// Aggregation metrics
		AggregationQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "query_duration_seconds",
			Help:      "Observation load duration in seconds by operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		AggregationQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "query_errors_total",
			Help:      "Total number of observation load errors by operation",
		}, []string{"operation"}),

		// CoinGecko metrics
		CoinGeckoCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "coingecko",
			Name:      "call_latency_seconds",
			Help:      "CoinGecko API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		CoinGeckoCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coingecko",
			Name:      "call_errors_total",
			Help:      "Total number of failed CoinGecko API calls",
		}, []string{"endpoint"}),

		// Cache metrics
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits by view",
		}, []string{"view"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses by view",
		}, []string{"view"}),

		// Database metrics
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
		DBConnections: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "connections",
			Help:      "Number of database connections by state",
		}, []string{"database", "state"}),

		// Health metrics
		LastSuccessfulUpdate: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_update_timestamp",
			Help:      "Unix timestamp of last successful observation update",
		}),
		LastSuccessfulDiscovery: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_discovery_timestamp",
			Help:      "Unix timestamp of last successful coin discovery",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordObservationsFetched adds to the observations fetched counter.
func RecordObservationsFetched(n int) {
	DefaultMetrics.ObservationsFetched.Add(float64(n))
}

// RecordObservationsInserted adds to the observations inserted counter.
func RecordObservationsInserted(n int) {
	DefaultMetrics.ObservationsInserted.Add(float64(n))
}

// RecordCoinUpdated increments the coins updated counter.
func RecordCoinUpdated() {
	DefaultMetrics.CoinsUpdated.Inc()
}

// RecordIngestionError records an ingestion error for the given stage.
func RecordIngestionError(stage string) {
	DefaultMetrics.IngestionErrors.WithLabelValues(stage).Inc()
}

// RecordCoinDiscovered increments the coins discovered counter.
func RecordCoinDiscovered() {
	DefaultMetrics.CoinsDiscovered.Inc()
}

// RecordDiscoveryPage increments the discovery pages counter.
func RecordDiscoveryPage() {
	DefaultMetrics.DiscoveryPages.Inc()
}

// RecordHTTPRequest records an HTTP request with its status and duration.
func RecordHTTPRequest(endpoint, status string, seconds float64) {
	DefaultMetrics.HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(endpoint).Observe(seconds)
}

// RecordAggregationQuery records an observation load by operation.
func RecordAggregationQuery(operation string, seconds float64, err error) {
	DefaultMetrics.AggregationQueryDuration.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.AggregationQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordCoinGeckoCall records a CoinGecko API call.
func RecordCoinGeckoCall(endpoint string, seconds float64, err error) {
	DefaultMetrics.CoinGeckoCallLatency.WithLabelValues(endpoint).Observe(seconds)
	if err != nil {
		DefaultMetrics.CoinGeckoCallErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordCacheHit increments the cache hit counter for a view.
func RecordCacheHit(view string) {
	DefaultMetrics.CacheHits.WithLabelValues(view).Inc()
}

// RecordCacheMiss increments the cache miss counter for a view.
func RecordCacheMiss(view string) {
	DefaultMetrics.CacheMisses.WithLabelValues(view).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// SetDBConnections sets the connection gauge for a database and state.
func SetDBConnections(database, state string, n int) {
	DefaultMetrics.DBConnections.WithLabelValues(database, state).Set(float64(n))
}

// MarkUpdateSuccess sets the last successful update timestamp.
func MarkUpdateSuccess(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulUpdate.Set(float64(unixSeconds))
}

// MarkDiscoverySuccess sets the last successful discovery timestamp.
func MarkDiscoverySuccess(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulDiscovery.Set(float64(unixSeconds))
}
