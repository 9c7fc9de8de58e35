// Package observability registers the prometheus collectors for the API.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness_api",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests handled, by method and status code.",
	}, []string{"method", "status"})
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fitness_api",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
	activityLoggedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitness_api",
		Subsystem: "persistence",
		Name:      "last_activity_logged_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity persisted to Postgres.",
	})
)

func init() {
	prometheus.MustRegister(requestTotal, requestDuration, activityLoggedGauge)
}

// RecordActivityLogged updates the persistence watermark gauge.
func RecordActivityLogged(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityLoggedGauge.Set(float64(ts.Unix()))
}

// Instrument wraps an http.Handler with request count and latency metrics.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		requestTotal.WithLabelValues(r.Method, strconv.Itoa(recorder.status)).Inc()
		requestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
