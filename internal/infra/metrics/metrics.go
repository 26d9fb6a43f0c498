package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the service collectors. A nil *Registry is valid and
// records nothing.
type Registry struct {
	reg           *prometheus.Registry
	submissions   *prometheus.CounterVec
	geocodeCache  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cultureradar",
			Name:      "submissions_total",
			Help:      "Settled submission attempts by kind and outcome.",
		}, []string{"kind", "outcome"}),
		geocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cultureradar",
			Name:      "geocode_cache_total",
			Help:      "Reverse geocode cache lookups by result.",
		}, []string{"result"}),
		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cultureradar",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.submissions,
		r.geocodeCache,
		r.httpDurations,
	)

	return r
}

func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.reg
}

func (r *Registry) SubmissionSettled(kind, outcome string) {
	if r == nil {
		return
	}
	r.submissions.WithLabelValues(kind, outcome).Inc()
}

func (r *Registry) GeocodeCache(result string) {
	if r == nil {
		return
	}
	r.geocodeCache.WithLabelValues(result).Inc()
}

func (r *Registry) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.httpDurations.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
