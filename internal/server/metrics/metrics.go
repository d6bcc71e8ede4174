// Package metrics holds the server's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for auth events.
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid_input"
	OutcomeDuplicate   = "duplicate"
	OutcomeBadCreds    = "invalid_credentials"
	OutcomeBadToken    = "invalid_token"
	OutcomeExpired     = "expired"
	OutcomeError       = "error"
	OutcomeRateLimited = "rate_limited"
)

// AuthEvents counts auth operations by action (register, login, logout,
// validate) and outcome.
var AuthEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "localbiz_auth_events_total",
		Help: "Auth operations by action and outcome",
	},
	[]string{"action", "outcome"},
)

// RateLimitRejections counts requests turned away by a rate-limit policy.
var RateLimitRejections = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "localbiz_rate_limit_rejections_total",
		Help: "Requests rejected by rate limiting, by policy",
	},
	[]string{"policy"},
)

// HTTPRequests counts served requests by method, route pattern and status.
var HTTPRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "localbiz_http_requests_total",
		Help: "HTTP requests by method, route and status code",
	},
	[]string{"method", "route", "status"},
)

// HTTPDuration observes request latency by method and route pattern.
var HTTPDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "localbiz_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// RegisterMetrics registers every collector with reg. Panics on duplicate
// registration, following prometheus convention.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthEvents, RateLimitRejections, HTTPRequests, HTTPDuration)
}

// NewRegistry returns a registry holding the server collectors plus the Go
// runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	RegisterMetrics(reg)
	return reg
}

// Handler serves reg in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func RecordAuthEvent(action, outcome string) {
	AuthEvents.WithLabelValues(action, outcome).Inc()
}

func RecordRateLimited(policy string) {
	RateLimitRejections.WithLabelValues(policy).Inc()
}

// RecordRequest records one finished HTTP request. route is the matched
// pattern, not the raw path, to keep label cardinality bounded.
func RecordRequest(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
