// Package metrics holds the admin console's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "admin_console",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "admin_console",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "admin_console",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	clientsConstructed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "admin_console",
			Subsystem: "clients",
			Name:      "constructed_total",
			Help:      "Number of external service clients constructed.",
		},
		[]string{"client"},
	)

	configMissing = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "admin_console",
			Subsystem: "config",
			Name:      "missing_total",
			Help:      "Number of operations that failed on a missing configuration key.",
		},
		[]string{"key"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		clientsConstructed,
		configMissing,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordClientConstructed counts a successful client construction.
func RecordClientConstructed(client string) {
	clientsConstructed.WithLabelValues(client).Inc()
}

// RecordMissingConfiguration counts a failure caused by key being unset.
func RecordMissingConfiguration(key string) {
	if key == "" {
		key = "unknown"
	}
	configMissing.WithLabelValues(key).Inc()
}

// ClientsConstructed exposes the constructed counter for one client. Used by tests.
func ClientsConstructed(client string) prometheus.Counter {
	return clientsConstructed.WithLabelValues(client)
}

// MissingConfiguration exposes the missing-key counter for one key. Used by tests.
func MissingConfiguration(key string) prometheus.Counter {
	return configMissing.WithLabelValues(key)
}

// InstrumentHandler wraps next with HTTP metrics collection. Paths are
// labelled by their mux route template when one matched.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		} else {
			path = "unmatched"
		}
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
