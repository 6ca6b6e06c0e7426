package monitoring

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of a drawin server. Each Metrics
// has its own registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	classificationsTotal *prometheus.CounterVec
	strokePoints         prometheus.Histogram
	rendersTotal         *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "drawin",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "drawin",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "drawin",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
		},
	)
	classificationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "drawin",
			Subsystem: "classifier",
			Name:      "classifications_total",
			Help:      "Strokes analysed, by outcome status, category and rule.",
		},
		[]string{"status", "category", "rule"},
	)
	strokePoints := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "drawin",
			Subsystem: "classifier",
			Name:      "stroke_points",
			Help:      "Number of points in analysed strokes.",
			Buckets:   []float64{3, 5, 10, 20, 50, 100, 200, 500, 1000},
		},
	)
	rendersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "drawin",
			Subsystem: "render",
			Name:      "renders_total",
			Help:      "Canned pictures rendered, by category and format.",
		},
		[]string{"category", "format"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		classificationsTotal,
		strokePoints,
		rendersTotal,
	)

	return &Metrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		classificationsTotal: classificationsTotal,
		strokePoints:         strokePoints,
		rendersTotal:         rendersTotal,
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(r.Method, path, strconv.Itoa(recorder.statusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath folds sketch and session IDs so label cardinality stays
// bounded.
func normalizePath(path string) string {
	for _, prefix := range []string{"/api/sketches/", "/api/sessions/"} {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || rest == "" {
			continue
		}
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) == 2 {
			return prefix + "{id}/" + parts[1]
		}
		return prefix + "{id}"
	}
	return path
}

// ObserveClassification counts one analysed stroke. An empty rule is
// reported as "none".
func (m *Metrics) ObserveClassification(status, category, rule string, points int) {
	if m == nil {
		return
	}
	if rule == "" {
		rule = "none"
	}
	m.classificationsTotal.WithLabelValues(status, category, rule).Inc()
	m.strokePoints.Observe(float64(points))
}

func (m *Metrics) ObserveRender(category, format string) {
	if m == nil {
		return
	}
	m.rendersTotal.WithLabelValues(category, format).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
