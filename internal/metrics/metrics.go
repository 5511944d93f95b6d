package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studiobook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studiobook",
			Name:      "booking_mutations_total",
			Help:      "Booking mutations by operation and result.",
		},
		[]string{"operation", "result"},
	)

	persistFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "studiobook",
			Name:      "persist_failures_total",
			Help:      "Snapshot saves that failed and left state diverged.",
		},
	)

	aiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studiobook",
			Name:      "ai_requests_total",
			Help:      "Generative API requests by kind and result.",
		},
		[]string{"kind", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingMutations, persistFailures, aiRequests)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncMutation records a booking mutation outcome.
func IncMutation(operation, result string) {
	bookingMutations.WithLabelValues(operation, result).Inc()
}

// IncPersistFailure records a failed snapshot save.
func IncPersistFailure() {
	persistFailures.Inc()
}

// IncAI records a generative API request outcome.
func IncAI(kind, result string) {
	aiRequests.WithLabelValues(kind, result).Inc()
}
