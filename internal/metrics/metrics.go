package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salonslot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salonslot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salonslot_bookings_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome", "write_mode"},
	)

	SlotClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salonslot_slot_claims_total",
			Help: "Atomic slot claims by result",
		},
		[]string{"result"},
	)

	SlotClaimDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salonslot_slot_claim_duration_seconds",
			Help:    "Duration of the claim and booking write",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"write_mode"},
	)

	OrphanedReservationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "salonslot_orphaned_reservations_total",
			Help: "Slots left reserved after the booking insert failed",
		},
	)

	ConsistencyOrphanedReservations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "salonslot_consistency_orphaned_reservations",
			Help: "Reserved slots without a confirmed booking at the last consistency check",
		},
	)

	ConsistencyUnbackedBookings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "salonslot_consistency_unbacked_bookings",
			Help: "Confirmed bookings without a reserved slot at the last consistency check",
		},
	)

	SeededSlotsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "salonslot_seeded_slots_total",
			Help: "Slots added by availability seeding",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salonslot_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "salonslot_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salonslot_events_published_total",
			Help: "Domain events published by routing key",
		},
		[]string{"routing_key", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(outcome, writeMode string) {
	BookingsTotal.WithLabelValues(outcome, writeMode).Inc()
}

// RecordSlotClaim counts one claim attempt; claimed is false when no open slot matched.
func RecordSlotClaim(claimed bool) {
	result := "missed"
	if claimed {
		result = "claimed"
	}
	SlotClaimsTotal.WithLabelValues(result).Inc()
}

func ObserveSlotClaim(writeMode string, seconds float64) {
	SlotClaimDuration.WithLabelValues(writeMode).Observe(seconds)
}

func RecordOrphanedReservation() {
	OrphanedReservationsTotal.Inc()
}

func SetConsistency(orphaned, unbacked int) {
	ConsistencyOrphanedReservations.Set(float64(orphaned))
	ConsistencyUnbackedBookings.Set(float64(unbacked))
}

func RecordSeededSlots(n int) {
	SeededSlotsTotal.Add(float64(n))
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordEvent(routingKey, status string) {
	EventsPublishedTotal.WithLabelValues(routingKey, status).Inc()
}
