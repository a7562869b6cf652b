package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	Requests     *prometheus.CounterVec
	Latency      *prometheus.HistogramVec
	QueryLatency *prometheus.HistogramVec
	SlowQueries  *prometheus.CounterVec
	CacheLookups *prometheus.CounterVec
	CachePurges  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restyapi",
			Name:      "http_requests_total",
			Help:      "HTTP requests by resource, method and status code.",
		}, []string{"resource", "method", "code"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "restyapi",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource", "method"}),
		QueryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "restyapi",
			Name:      "query_duration_seconds",
			Help:      "Backend query latency per resource table.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"table"}),
		SlowQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restyapi",
			Name:      "slow_queries_total",
			Help:      "Queries slower than the configured threshold.",
		}, []string{"table"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restyapi",
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result (hit, miss).",
		}, []string{"resource", "result"}),
		CachePurges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restyapi",
			Name:      "cache_purges_total",
			Help:      "Full cache clears caused by the key bound.",
		}, []string{"resource"}),
	}
	m.registry.MustRegister(
		m.Requests, m.Latency, m.QueryLatency, m.SlowQueries, m.CacheLookups, m.CachePurges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
