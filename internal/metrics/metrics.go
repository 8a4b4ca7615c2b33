package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the service's Prometheus metrics.
type Collector struct {
	registry prometheus.Registerer

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	authorizeDecisions *prometheus.CounterVec
	viewsConsumed      prometheus.Counter
	upstreamFailures   *prometheus.CounterVec
}

// NewCollector registers and returns the service metrics.
func NewCollector(registry prometheus.Registerer) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	c := &Collector{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidgate_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vidgate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		authorizeDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidgate_authorize_decisions_total",
			Help: "Authorization decisions by outcome reason",
		}, []string{"reason"}),
		viewsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vidgate_views_consumed_total",
			Help: "Logical views counted against token budgets",
		}),
		upstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidgate_upstream_failures_total",
			Help: "Failed upstream video resolutions by provider",
		}, []string{"provider"}),
	}

	registry.MustRegister(
		c.httpRequestsTotal,
		c.httpRequestDuration,
		c.authorizeDecisions,
		c.viewsConsumed,
		c.upstreamFailures,
	)
	return c
}

// ObserveDecision counts one authorization outcome. An empty reason means
// the request was authorized.
func (c *Collector) ObserveDecision(reason string) {
	if reason == "" {
		reason = "authorized"
	}
	c.authorizeDecisions.WithLabelValues(reason).Inc()
}

// ObserveViewConsumed counts one logical view.
func (c *Collector) ObserveViewConsumed() {
	c.viewsConsumed.Inc()
}

// ObserveUpstreamFailure counts one failed provider resolution.
func (c *Collector) ObserveUpstreamFailure(provider string) {
	c.upstreamFailures.WithLabelValues(provider).Inc()
}

// Middleware records request counts and latencies per route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		// Route patterns keep label cardinality bounded; raw paths carry
		// token strings.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		c.httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
		c.httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the Prometheus scrape endpoint.
func (c *Collector) Handler() http.Handler {
	if gatherer, ok := c.registry.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}
