// Package metrics holds the Prometheus collectors shared by the generation pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels stay low-cardinality: capability names and outcome classes only.
var (
	// UpstreamAttempts counts every HTTP call made to an inference provider.
	UpstreamAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artify_upstream_attempts_total",
		Help: "Upstream inference calls, by capability and classified outcome.",
	}, []string{"capability", "outcome"})

	// UpstreamRetries counts backoff waits taken after a retryable outcome.
	UpstreamRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artify_upstream_retries_total",
		Help: "Backoff waits scheduled after retryable upstream outcomes.",
	}, []string{"capability"})

	// Generations counts finished proxy requests.
	Generations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artify_generations_total",
		Help: "Finished generation requests, by capability and result.",
	}, []string{"capability", "result"})

	// RateLimitRejected counts requests refused by the local rate limiter.
	RateLimitRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artify_ratelimit_rejected_total",
		Help: "Requests rejected by the rate limiter, by scope and backend.",
	}, []string{"scope", "backend"})

	// GallerySaveFallback counts result cache saves that had to shrink or clear.
	GallerySaveFallback = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artify_gallery_save_fallback_total",
		Help: "Result cache saves that fell back to a smaller set or cleared the key.",
	}, []string{"key", "stage"})

	// BatchResults counts orchestrated batches by final status.
	BatchResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artify_batch_results_total",
		Help: "Client batches, by final status.",
	}, []string{"status"})
)
