package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	ServiceName string
	Environment string
}

// Metrics holds the service collectors. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	registry          *prometheus.Registry
	requestDuration   *prometheus.HistogramVec
	requestsTotal     *prometheus.CounterVec
	submissionsTotal  *prometheus.CounterVec
	statsCacheLookups *prometheus.CounterVec
	eventsHandled     *prometheus.CounterVec
}

func New(cfg Config) *Metrics {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "invoicing-service"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "invoicing_http_request_duration_seconds",
				Help:        "HTTP request latency by route and status.",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{"method", "route", "status"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "invoicing_http_requests_total",
				Help:        "HTTP requests by route and status.",
				ConstLabels: constLabels,
			},
			[]string{"method", "route", "status"},
		),
		submissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "invoicing_submissions_total",
				Help:        "Invoice submissions by operation and outcome.",
				ConstLabels: constLabels,
			},
			[]string{"operation", "outcome"},
		),
		statsCacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "invoicing_stats_cache_lookups_total",
				Help:        "Admin stats cache lookups.",
				ConstLabels: constLabels,
			},
			[]string{"result"}, // hit | miss | error
		),
		eventsHandled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "invoicing_events_handled_total",
				Help:        "Consumed events by type and outcome.",
				ConstLabels: constLabels,
			},
			[]string{"event_type", "outcome"},
		),
	}
	m.registry.MustRegister(
		m.requestDuration,
		m.requestsTotal,
		m.submissionsTotal,
		m.statsCacheLookups,
		m.eventsHandled,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	route = strings.TrimSpace(route)
	if route == "" {
		route = "unknown"
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
	m.requestsTotal.WithLabelValues(method, route, code).Inc()
}

func (m *Metrics) RecordSubmission(operation, outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RecordStatsCache(result string) {
	if m == nil {
		return
	}
	m.statsCacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.eventsHandled.WithLabelValues(eventType, outcome).Inc()
}
