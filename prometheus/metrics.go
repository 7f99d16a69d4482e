package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbital_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbital_register_total",
			Help: "Total number of organization registrations",
		},
	)

	// Entity operation counter across all resource handlers
	EntityOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbital_entity_operations_total",
			Help: "Total number of entity operations",
		},
		[]string{"entity", "operation"}, // operation can be "list", "get", "create", "update", "delete"
	)

	// HTTP request counter by endpoint and status
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbital_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"method", "path", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbital_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "invalid_token", "login_failure", "missing_header" etc.
	)

	// Cross-entity search counter
	SearchCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbital_search_total",
			Help: "Total number of cross-entity searches executed",
		},
	)

	// Webhook ingestion counters
	WebhookCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbital_webhook_reports_total",
			Help: "Total number of eval webhook reports by outcome",
		},
		[]string{"outcome"}, // outcome can be "accepted", "rejected", "unauthorized"
	)
)

// Histogram metrics
var (
	// Request duration
	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbital_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbital_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(EntityOperationCounter)
	prometheus.MustRegister(HttpRequestsTotal)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(SearchCounter)
	prometheus.MustRegister(WebhookCounter)

	prometheus.MustRegister(HttpRequestDuration)
	prometheus.MustRegister(DBOperationDuration)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// RecordEntityOperation increments the operation counter for an entity
func RecordEntityOperation(entity, operation string) {
	EntityOperationCounter.With(prometheus.Labels{
		"entity":    entity,
		"operation": operation,
	}).Inc()
}

// RecordAuthError increments the auth error counter for a failure type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}
