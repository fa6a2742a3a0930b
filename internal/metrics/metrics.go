package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinic",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	availabilityChecks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clinic",
			Name:      "availability_checks_total",
			Help:      "Availability lookups served.",
		},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clinic",
			Name:      "bookings_created_total",
			Help:      "Appointments successfully booked.",
		},
	)

	bookingsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinic",
			Name:      "bookings_rejected_total",
			Help:      "Booking submissions rejected, by reason.",
		},
		[]string{"reason"},
	)

	calendarErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clinic",
			Name:      "calendar_errors_total",
			Help:      "Failed Google Calendar calls.",
		},
	)

	notifyErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clinic",
			Name:      "notify_errors_total",
			Help:      "Failed Telegram notifications.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			availabilityChecks,
			bookingsCreated,
			bookingsRejected,
			calendarErrors,
			notifyErrors,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncAvailabilityCheck() { availabilityChecks.Inc() }

func IncBookingCreated() { bookingsCreated.Inc() }

// IncBookingRejected counts a rejection with a bounded reason label
// (slot_taken, past_date, vacation, rate_limited, validation).
func IncBookingRejected(reason string) {
	bookingsRejected.WithLabelValues(reason).Inc()
}

func IncCalendarError() { calendarErrors.Inc() }

func IncNotifyError() { notifyErrors.Inc() }
