package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookRequestsTotal counts billing webhook requests by event type and status.
	WebhookRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hairstudio",
		Subsystem: "billing",
		Name:      "webhook_requests_total",
		Help:      "Total billing webhook requests by event type and HTTP status.",
	}, []string{"event_type", "status"})

	// WebhookDuration tracks webhook processing latency.
	WebhookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hairstudio",
		Subsystem: "billing",
		Name:      "webhook_duration_seconds",
		Help:      "Billing webhook processing duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"event_type"})

	// SignatureFailuresTotal counts webhook deliveries rejected for a bad signature.
	SignatureFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hairstudio",
		Subsystem: "billing",
		Name:      "signature_failures_total",
		Help:      "Webhook deliveries rejected because the signature did not verify.",
	})

	// GenerationsTotal counts generation calls by angle and outcome kind.
	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hairstudio",
		Subsystem: "generate",
		Name:      "requests_total",
		Help:      "Total generation requests by angle and outcome.",
	}, []string{"angle", "outcome"})

	// GenerationDuration tracks upstream generation latency.
	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hairstudio",
		Subsystem: "generate",
		Name:      "duration_seconds",
		Help:      "Generation request duration in seconds.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 90},
	}, []string{"angle"})

	// CheckoutsTotal counts checkout transactions created by plan and outcome.
	CheckoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hairstudio",
		Subsystem: "billing",
		Name:      "checkouts_total",
		Help:      "Checkout transactions requested by plan and outcome.",
	}, []string{"plan", "outcome"})

	// HTTPRequestsTotal counts served requests by route pattern and status class.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hairstudio",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route pattern, method and status class.",
	}, []string{"route", "method", "class"})

	// HTTPDuration tracks handler latency by route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hairstudio",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP handler duration in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 90},
	}, []string{"route"})

	// RateLimitedTotal counts requests rejected by the per-IP limiter.
	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hairstudio",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected with 429 by the per-IP limiter.",
	})
)
