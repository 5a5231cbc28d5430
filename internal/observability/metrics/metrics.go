package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
)

// Metrics owns the Prometheus registry for the API process. It covers the
// HTTP surface and the query pipeline stages.
type Metrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	intentTotal      *prometheus.CounterVec
	toolResultsTotal *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	cacheLookupTotal *prometheus.CounterVec
}

func New(service string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		service:  service,
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hcai",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests processed.",
			},
			[]string{"service", "method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "hcai",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "method", "path"},
		),
		requestInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   "hcai",
				Subsystem:   "http",
				Name:        "in_flight_requests",
				Help:        "Number of in-flight HTTP requests.",
				ConstLabels: prometheus.Labels{"service": service},
			},
		),
		intentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hcai",
				Subsystem: "pipeline",
				Name:      "intent_total",
				Help:      "Classified intents by kind.",
			},
			[]string{"service", "intent"},
		),
		toolResultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hcai",
				Subsystem: "pipeline",
				Name:      "tool_results_total",
				Help:      "Tool fan-out results by tool and outcome.",
			},
			[]string{"service", "tool", "outcome"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "hcai",
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "stage"},
		),
		cacheLookupTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hcai",
				Subsystem: "livedata",
				Name:      "cache_lookups_total",
				Help:      "Live-data cache lookups by result.",
			},
			[]string{"service", "result"},
		),
	}

	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.requestInFlight,
		m.intentTotal,
		m.toolResultsTotal,
		m.stageDuration,
		m.cacheLookupTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveIntent(intent domain.Intent) {
	m.intentTotal.WithLabelValues(m.service, string(intent)).Inc()
}

func (m *Metrics) ObserveTool(tool domain.ToolName, outcome string) {
	m.toolResultsTotal.WithLabelValues(m.service, string(tool), outcome).Inc()
}

func (m *Metrics) ObserveStage(stage string, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(m.service, stage).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookupTotal.WithLabelValues(m.service, result).Inc()
}

// Middleware records request count, duration and in-flight gauge.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(m.service, r.Method, r.URL.Path, strconv.Itoa(recorder.statusCode)).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
