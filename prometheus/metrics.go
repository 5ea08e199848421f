package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizledger_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Record store operations
	StoreOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizledger_store_operations_total",
			Help: "Total number of record store operations",
		},
		[]string{"operation", "collection", "outcome"}, // operation: get, add, update, delete, log
	)

	// Audit entries appended or dropped
	AuditEntryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizledger_audit_entries_total",
			Help: "Total number of audit entries by outcome",
		},
		[]string{"outcome"}, // stored, store_failed, published, publish_failed
	)

	// Subscription gate evaluations
	GateStateCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizledger_subscription_gate_total",
			Help: "Total number of subscription gate evaluations by resulting state",
		},
		[]string{"state"},
	)

	// Login attempts
	LoginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizledger_login_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bizledger_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Store operation duration
	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bizledger_store_operation_duration_seconds",
			Help:    "Duration of record store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "collection"},
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bizledger_info",
			Help: "Information about the service",
		},
		[]string{"version", "store_driver"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(StoreOperationCounter)
	prometheus.MustRegister(AuditEntryCounter)
	prometheus.MustRegister(GateStateCounter)
	prometheus.MustRegister(LoginCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(StoreOperationDuration)

	prometheus.MustRegister(InfoGauge)
}

// SetInfo publishes the running version and store driver
func SetInfo(version, driver string) {
	InfoGauge.Reset()
	InfoGauge.With(prometheus.Labels{"version": version, "store_driver": driver}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackStoreOperation measures store operation durations
func TrackStoreOperation(operation, collection string) func(time.Time) {
	return func(start time.Time) {
		StoreOperationDuration.With(prometheus.Labels{
			"operation":  operation,
			"collection": collection,
		}).Observe(time.Since(start).Seconds())
	}
}

// RecordStoreOperation records a store operation outcome ("ok" or an error class)
func RecordStoreOperation(operation, collection, outcome string) {
	StoreOperationCounter.With(prometheus.Labels{
		"operation":  operation,
		"collection": collection,
		"outcome":    outcome,
	}).Inc()
}

// RecordAuditEntry records what happened to an audit entry
func RecordAuditEntry(outcome string) {
	AuditEntryCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordGateState records a subscription gate evaluation
func RecordGateState(state string) {
	GateStateCounter.With(prometheus.Labels{"state": state}).Inc()
}

// RecordLogin records a login attempt outcome
func RecordLogin(outcome string) {
	LoginCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
				status = he.Code
			}
			labels := prometheus.Labels{
				"endpoint": c.Path(),
				"method":   c.Request().Method,
				"status":   strconv.Itoa(status),
			}

			RequestDuration.With(labels).Observe(time.Since(start).Seconds())
			HTTPRequestCounter.With(labels).Inc()

			return err
		}
	}
}
