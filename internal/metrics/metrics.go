// Package metrics holds the Prometheus collectors for the service.
// Collectors register with the default registry at init and are exposed by
// the web server at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "csvdml"

// Conversion outcomes used as the status label.
const (
	StatusSuccess  = "success"
	StatusFailed   = "failed"
	StatusRejected = "rejected"
	StatusCached   = "cached"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "CSV conversions by outcome.",
		},
		[]string{"status"},
	)

	statementsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statements_generated_total",
			Help:      "INSERT statements emitted.",
		},
	)

	uploadBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes read from uploads.",
		},
	)

	conversionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Time spent decoding and generating per upload.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	activeConversions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_conversions",
			Help:      "Conversions currently holding a limiter slot.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		conversionsTotal,
		statementsTotal,
		uploadBytesTotal,
		conversionDurationSeconds,
		activeConversions,
	)
}

// ObserveConversion records one finished conversion.
func ObserveConversion(status string, statements int, bytesRead int64, d time.Duration) {
	conversionsTotal.WithLabelValues(status).Inc()
	if statements > 0 {
		statementsTotal.Add(float64(statements))
	}
	if bytesRead > 0 {
		uploadBytesTotal.Add(float64(bytesRead))
	}
	conversionDurationSeconds.Observe(d.Seconds())
}

// SetActiveConversions reports the limiter's active count.
func SetActiveConversions(n int) {
	activeConversions.Set(float64(n))
}

// ObserveHTTP records one served request. route should be the route pattern,
// not the raw path, to keep label cardinality bounded.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	code := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, code).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, code).Observe(d.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
