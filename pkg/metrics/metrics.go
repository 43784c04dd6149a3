package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	ContactsInitiated *prometheus.CounterVec
	RateLimitHits     prometheus.Counter
	Ratings           *prometheus.CounterVec
	Logins            *prometheus.CounterVec
	EventsPublished   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nikosoko",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nikosoko",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ContactsInitiated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nikosoko",
			Name:      "contacts_initiated_total",
			Help:      "Successful contact actions by channel.",
		}, []string{"channel"}),
		RateLimitHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nikosoko",
			Name:      "contact_rate_limit_hits_total",
			Help:      "Contact attempts blocked pending a rating.",
		}),
		Ratings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nikosoko",
			Name:      "contact_resolutions_total",
			Help:      "Unrated contacts resolved, by outcome.",
		}, []string{"outcome"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nikosoko",
			Name:      "logins_total",
			Help:      "OTP verifications by result.",
		}, []string{"result"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nikosoko",
			Name:      "events_published_total",
			Help:      "Domain events by subject and result.",
		}, []string{"subject", "result"}),
	}

	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.ContactsInitiated,
		m.RateLimitHits,
		m.Ratings,
		m.Logins,
		m.EventsPublished,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests that gather collectors directly.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
