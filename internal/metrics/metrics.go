package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var msBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000}

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "places_requests_total",
		Help: "Total number of /places requests by route and status code",
	}, []string{"route", "code"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "places_request_duration_ms",
		Help:    "Request duration in milliseconds",
		Buckets: msBuckets,
	}, []string{"route"})
	UpstreamRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "places_upstream_requests_total",
		Help: "Total geoapify places requests",
	})
	UpstreamSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "places_upstream_success_total",
		Help: "Total geoapify places successes",
	})
	UpstreamFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "places_upstream_fail_total",
		Help: "Total geoapify places failures by reason (http, status, decode)",
	}, []string{"reason"})
	UpstreamDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "places_upstream_duration_ms",
		Help:    "Geoapify places call duration in milliseconds",
		Buckets: msBuckets,
	})
	RefreshRows = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "places_refresh_rows",
		Help: "Rows written by the last wholesale refresh",
	})
	RefreshDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "places_refresh_duration_ms",
		Help:    "Wholesale refresh duration in milliseconds",
		Buckets: msBuckets,
	})
	RefreshLastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "places_refresh_last_success_timestamp",
		Help: "Unix time of the last successful wholesale refresh",
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "places_cache_hits_total",
		Help: "Total redis lookup cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "places_cache_misses_total",
		Help: "Total redis lookup cache misses",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(UpstreamRequestsTotal)
	prometheus.MustRegister(UpstreamSuccessTotal)
	prometheus.MustRegister(UpstreamFailTotal)
	prometheus.MustRegister(UpstreamDurationMs)
	prometheus.MustRegister(RefreshRows)
	prometheus.MustRegister(RefreshDurationMs)
	prometheus.MustRegister(RefreshLastSuccess)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
}

// Handler exposes the registered collectors for Prometheus scraping; mounted by cmd/main.go.
func Handler() http.Handler { return promhttp.Handler() }
