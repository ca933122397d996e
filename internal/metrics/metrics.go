// Package metrics provides Prometheus instrumentation for the index engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CompositionsTotal counts index compositions, partitioned by outcome.
	CompositionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cryptidx_compositions_total",
		Help: "Total number of index compositions",
	}, []string{"status"})

	// CompositionDuration tracks how long a full composition takes.
	CompositionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cryptidx_composition_duration_seconds",
		Help:    "Index composition latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// DataGapsTotal counts constituent histories that degraded to empty
	// because a fetch failed or returned nothing.
	DataGapsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cryptidx_data_gaps_total",
		Help: "Constituent histories degraded to empty during composition",
	}, []string{"index_id"})

	// ResultCacheHits counts composed-index cache hits.
	ResultCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptidx_result_cache_hits_total",
		Help: "Composed index cache hits",
	})

	// ResultCacheMisses counts composed-index cache misses.
	ResultCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptidx_result_cache_misses_total",
		Help: "Composed index cache misses",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cryptidx_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cryptidx_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
