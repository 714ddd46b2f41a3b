package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	BookingsCreated   *prometheus.CounterVec
	BookingsRejected  *prometheus.CounterVec
	BookingsCancelled prometheus.Counter
	LockContention    *prometheus.CounterVec
	CacheLookups      *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_bookings_created_total",
			Help: "Bookings committed, by vehicle type.",
		}, []string{"vehicle_type"}),
		BookingsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_bookings_rejected_total",
			Help: "Booking requests rejected, by error kind.",
		}, []string{"kind"}),
		BookingsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parking_bookings_cancelled_total",
			Help: "Bookings transitioned from active to cancelled.",
		}),
		LockContention: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_slot_lock_contention_total",
			Help: "Failed attempts to enter a slot critical section, by outcome.",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_availability_cache_lookups_total",
			Help: "Availability cache lookups, by result.",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_http_requests_total",
			Help: "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "parking_http_request_duration_seconds",
			Help:    "HTTP request latency, by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(
		m.BookingsCreated,
		m.BookingsRejected,
		m.BookingsCancelled,
		m.LockContention,
		m.CacheLookups,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// NewUnregistered is used by tests and tools that do not expose /metrics.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
