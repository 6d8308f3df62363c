// Package metrics holds the Prometheus collectors of the shortening engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var once sync.Once

var (
	// CodesGenerated counts codes produced, labelled by strategy and path (sync/async).
	CodesGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dynlinks_codes_generated_total",
			Help: "Short codes generated by strategy.",
		},
		[]string{"strategy", "path"},
	)

	// AsyncRequests counts async shorten outcomes: enqueued, deduplicated, failed.
	AsyncRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dynlinks_async_requests_total",
			Help: "Async shorten requests by outcome.",
		},
		[]string{"outcome"},
	)

	// ShortenErrors counts failed shorten calls by path.
	ShortenErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dynlinks_shorten_errors_total",
			Help: "Failed shorten calls.",
		},
		[]string{"path"},
	)

	// JobsProcessed counts worker jobs by result: persisted, retry, failed.
	JobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dynlinks_jobs_processed_total",
			Help: "Deferred persistence jobs processed by the worker.",
		},
		[]string{"result"},
	)
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			CodesGenerated,
			AsyncRequests,
			ShortenErrors,
			JobsProcessed,
		)
	})
}
