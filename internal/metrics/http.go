package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	uploadsTotal      *prometheus.CounterVec
	uploadBytes       prometheus.Histogram
	tableQueriesTotal *prometheus.CounterVec
	tableRowsMatched  prometheus.Histogram
	exportsTotal      *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	m := &HTTPServerMetrics{
		registry: registry,
		service:  service,
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "twin",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests processed.",
			},
			[]string{"service", "method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "twin",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "method", "route"},
		),
		requestInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   "twin",
				Subsystem:   "http",
				Name:        "in_flight_requests",
				Help:        "Number of in-flight HTTP requests.",
				ConstLabels: prometheus.Labels{"service": service},
			},
		),
		uploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "twin",
				Subsystem: "documents",
				Name:      "uploads_total",
				Help:      "Uploaded documents by classified type.",
			},
			[]string{"service", "document_type", "structure_type"},
		),
		uploadBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace:   "twin",
				Subsystem:   "documents",
				Name:        "upload_bytes",
				Help:        "Size of uploaded documents.",
				Buckets:     prometheus.ExponentialBuckets(1024, 4, 8),
				ConstLabels: prometheus.Labels{"service": service},
			},
		),
		tableQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "twin",
				Subsystem: "table",
				Name:      "queries_total",
				Help:      "Table view queries by the criteria they used.",
			},
			[]string{"service", "search", "filtered", "sorted"},
		),
		tableRowsMatched: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace:   "twin",
				Subsystem:   "table",
				Name:        "rows_matched",
				Help:        "Rows left after search and filters.",
				Buckets:     []float64{0, 1, 10, 50, 100, 500, 1000, 5000, 10000},
				ConstLabels: prometheus.Labels{"service": service},
			},
		),
		exportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "twin",
				Subsystem: "table",
				Name:      "exports_total",
				Help:      "Filtered table exports by format.",
			},
			[]string{"service", "format"},
		),
	}

	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.requestInFlight,
		m.uploadsTotal,
		m.uploadBytes,
		m.tableQueriesTotal,
		m.tableRowsMatched,
		m.exportsTotal,
	)

	return m
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware labels requests by their mux route template so twin IDs and
// filenames do not explode cardinality.
func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		route := routeTemplate(r)
		m.requestTotal.WithLabelValues(m.service, r.Method, route, strconv.Itoa(recorder.statusCode)).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

func (m *HTTPServerMetrics) RecordUpload(documentType, structureType string, size int64) {
	m.uploadsTotal.WithLabelValues(m.service, documentType, structureType).Inc()
	m.uploadBytes.Observe(float64(size))
}

func (m *HTTPServerMetrics) RecordTableQuery(search, filtered, sorted bool, matched int) {
	m.tableQueriesTotal.WithLabelValues(m.service, strconv.FormatBool(search), strconv.FormatBool(filtered), strconv.FormatBool(sorted)).Inc()
	m.tableRowsMatched.Observe(float64(matched))
}

func (m *HTTPServerMetrics) RecordExport(format string) {
	if format == "" {
		format = "unknown"
	}
	m.exportsTotal.WithLabelValues(m.service, format).Inc()
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
