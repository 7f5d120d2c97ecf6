package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rateLimitDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mealplanner",
		Subsystem: "ratelimit",
		Name:      "decisions_total",
		Help:      "Rate limit decisions by outcome.",
	}, []string{"outcome"})

	rateLimitEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mealplanner",
		Subsystem: "ratelimit",
		Name:      "evictions_total",
		Help:      "Live windows evicted from the in-memory store because the key cap was reached.",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mealplanner",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mealplanner",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 120},
	}, []string{"method", "route"})
)
