package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the HTTP surface and the
// engines. A private registry keeps the scrape output to what this server
// actually exports.
type Metrics struct {
	registry       *prometheus.Registry
	requests       *prometheus.CounterVec
	requestSeconds *prometheus.HistogramVec
	engineSeconds  *prometheus.HistogramVec
	sessions       prometheus.GaugeFunc
}

func NewMetrics(liveSessions func() float64) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	m := &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sheet_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sheet_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		engineSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sheet_engine_duration_seconds",
			Help:    "Engine call latency by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if liveSessions != nil {
		m.sessions = factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sheet_sessions_live",
			Help: "Sessions currently held in memory.",
		}, liveSessions)
	}
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestSeconds.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveEngine(operation string, elapsed time.Duration) {
	m.engineSeconds.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Handler serves the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
