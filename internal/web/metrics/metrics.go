// Package metrics holds the Prometheus instruments of the web service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/zuul/pkg/httpx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics groups the service instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Logins          *prometheus.CounterVec
	TokenRefreshes  *prometheus.CounterVec
	ProfileRequests *prometheus.CounterVec
	ProfileRetries  prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

// New registers the instruments on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zuul_logins_total",
			Help: "Authorization callbacks handled, by outcome.",
		}, []string{"outcome"}),
		TokenRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zuul_token_refreshes_total",
			Help: "Access token refresh attempts, by outcome.",
		}, []string{"outcome"}),
		ProfileRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zuul_profile_requests_total",
			Help: "Usermap profile lookups, by outcome.",
		}, []string{"outcome"}),
		ProfileRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "zuul_profile_retries_total",
			Help: "Usermap profile lookups retried after an access token refresh.",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zuul_http_request_duration_seconds",
			Help:    "HTTP request latency, by route and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
}

// ObserveLogin counts one authorization callback.
func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

// ObserveRefresh counts one refresh attempt.
func (m *Metrics) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}
	m.TokenRefreshes.WithLabelValues(outcome).Inc()
}

// ObserveProfile counts one profile lookup by its final outcome.
func (m *Metrics) ObserveProfile(outcome string) {
	if m == nil {
		return
	}
	m.ProfileRequests.WithLabelValues(outcome).Inc()
}

// ObserveProfileRetry counts a profile lookup repeated with a refreshed
// access token.
func (m *Metrics) ObserveProfileRetry() {
	if m == nil {
		return
	}
	m.ProfileRetries.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// Middleware records the latency of every request under its route name.
func (m *Metrics) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			route := httpx.RouteFromContext(r.Context())
			if route == "" {
				route = "unknown"
			}
			m.RequestDuration.
				WithLabelValues(route, strconv.Itoa(rw.status)).
				Observe(time.Since(start).Seconds())
		})
	}
}

type statusWriter struct {
	http.ResponseWriter

	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
