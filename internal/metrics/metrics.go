// Package metrics exposes Prometheus metrics for the client and the server.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Provider struct {
	reg *prometheus.Registry

	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	deduplicated prometheus.Counter
	superseded   prometheus.Counter
	serviceCalls *prometheus.CounterVec

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	activeRequests prometheus.Gauge
}

// New creates a provider with its own registry, so tests can build as many as
// they need without colliding on the default registerer.
func New(version string) *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	build := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "novacast_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version"},
	)
	if version == "" {
		version = "dev"
	}
	build.WithLabelValues(version).Set(1)

	p := &Provider{
		reg: reg,
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "novacast_cache_hits_total",
			Help: "Total forecast cache hits.",
		}, []string{"cache"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "novacast_cache_misses_total",
			Help: "Total forecast cache misses.",
		}, []string{"cache"}),
		deduplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "novacast_requests_deduplicated_total",
			Help: "Outbound calls that joined an identical in-flight request.",
		}),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "novacast_responses_superseded_total",
			Help: "Responses discarded because a newer search had started.",
		}),
		serviceCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "novacast_weather_service_calls_total",
			Help: "Calls to upstream weather services.",
		}, []string{"service", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"method", "route", "status"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of in-flight HTTP requests.",
		}),
	}

	reg.MustRegister(
		build,
		p.cacheHits,
		p.cacheMisses,
		p.deduplicated,
		p.superseded,
		p.serviceCalls,
		p.httpRequests,
		p.httpDuration,
		p.activeRequests,
	)

	return p
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *Provider) Registry() *prometheus.Registry { return p.reg }

func (p *Provider) RecordCacheHit(_ context.Context, cacheType string) {
	p.cacheHits.WithLabelValues(cacheType).Inc()
}

func (p *Provider) RecordCacheMiss(_ context.Context, cacheType string) {
	p.cacheMisses.WithLabelValues(cacheType).Inc()
}

func (p *Provider) RecordDeduplicated(context.Context) {
	p.deduplicated.Inc()
}

func (p *Provider) RecordSuperseded(context.Context) {
	p.superseded.Inc()
}

func (p *Provider) RecordWeatherServiceCall(_ context.Context, service string, success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	p.serviceCalls.WithLabelValues(service, outcome).Inc()
}

func (p *Provider) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	code := strconv.Itoa(status)
	p.httpRequests.WithLabelValues(method, route, code).Inc()
	p.httpDuration.WithLabelValues(method, route, code).Observe(d.Seconds())
}

func (p *Provider) IncActiveRequests() { p.activeRequests.Inc() }

func (p *Provider) DecActiveRequests() { p.activeRequests.Dec() }
