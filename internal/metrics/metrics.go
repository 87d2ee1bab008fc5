// Package metrics holds the Prometheus collectors of the booking API.
// All collectors are registered with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "barberapp"

// ── HTTP ─────────────────────────────────────────────────────────────────────

var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route template and status code.",
	},
	[]string{"method", "route", "status"},
)

var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route template.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// ── Booking ──────────────────────────────────────────────────────────────────

// ReservationsTotal counts reservation attempts.
// Label outcome: created, conflict, validation, busy, error.
var ReservationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservations_total",
		Help:      "Reservation attempts by outcome.",
	},
	[]string{"outcome"},
)

var ReservationLockWait = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reservation_lock_wait_seconds",
		Help:      "Time spent waiting for the per-barber reservation lock.",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 3},
	},
)

var ReservationRetriesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservation_retries_total",
		Help:      "Reservation attempts retried after a transient storage failure.",
	},
)

var SlotQueryDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "slot_query_duration_seconds",
		Help:      "Duration of availability queries including the ledger read.",
		Buckets:   prometheus.DefBuckets,
	},
)

var AppointmentStatusChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "appointment_status_changes_total",
		Help:      "Appointment status transitions by target status.",
	},
	[]string{"status"},
)

// ── Chat ─────────────────────────────────────────────────────────────────────

var MessagesAppendedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_messages_appended_total",
		Help:      "Chat messages stored, by sender type.",
	},
	[]string{"sender_type"},
)

// ── Events ───────────────────────────────────────────────────────────────────

var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_delivered_total",
		Help:      "Domain events handed to a sink, by sink and result (ok/error).",
	},
	[]string{"sink", "result"},
)

var EventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Domain events dropped because the dispatcher queue was full.",
	},
)

var EventsQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Events waiting in the dispatcher queue.",
	},
)

var WebsocketConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_connections",
		Help:      "Currently connected websocket clients.",
	},
)

var RemindersSentTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_sent_total",
		Help:      "Appointment reminder events emitted.",
	},
)
