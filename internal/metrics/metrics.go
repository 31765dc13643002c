package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkwise",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	wizardTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkwise",
			Name:      "wizard_transitions_total",
			Help:      "Wizard step transitions by target step.",
		},
		[]string{"step"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkwise",
			Name:      "bookings_total",
			Help:      "Bookings by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, wizardTransitions, bookings)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncWizardStep increments the transition counter for a step.
func IncWizardStep(step string) {
	wizardTransitions.WithLabelValues(step).Inc()
}

// IncBooking increments the booking counter for an outcome label
// (confirmed, cancelled, completed).
func IncBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}
