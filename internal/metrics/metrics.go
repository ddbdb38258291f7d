package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "homerent"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_transitions_total",
		Help:      "Booking status transitions by target status.",
	}, []string{"status"})

	PaymentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_transitions_total",
		Help:      "Payment status transitions by target status.",
	}, []string{"status"})

	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_runs_total",
		Help:      "Expiry sweep runs by job and result.",
	}, []string{"job", "result"})

	SweepExpired = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_expired_total",
		Help:      "Entities forced into EXPIRED by sweeps.",
	}, []string{"job"})

	SweepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sweep_duration_seconds",
		Help:      "Expiry sweep run duration.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})

	ProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_provider_calls_total",
		Help:      "Checkout provider calls by operation and result.",
	}, []string{"operation", "result"})

	ProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_provider_call_duration_seconds",
		Help:      "Checkout provider call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notifications published by subject and result.",
	}, []string{"subject", "result"})

	ConsumedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consumed_events_total",
		Help:      "Notification events received by the consumers service.",
	}, []string{"subject", "result"})
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func ObserveHTTP(method, route string, status int, start time.Time) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

func ObserveProviderCall(operation string, start time.Time, err error) {
	ProviderCalls.WithLabelValues(operation, result(err)).Inc()
	ProviderDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func ObserveSweep(job string, start time.Time, expired int, err error) {
	SweepRuns.WithLabelValues(job, result(err)).Inc()
	SweepDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
	if expired > 0 {
		SweepExpired.WithLabelValues(job).Add(float64(expired))
	}
}

// ObserveSweepSkipped counts a tick dropped because the previous run was still going
func ObserveSweepSkipped(job string) {
	SweepRuns.WithLabelValues(job, "skipped").Inc()
}

func ObserveConsumed(subject string, err error) {
	ConsumedEvents.WithLabelValues(subject, result(err)).Inc()
}

func ObserveNotification(subject string, err error) {
	Notifications.WithLabelValues(subject, result(err)).Inc()
}

func BookingTransition(status string) {
	BookingTransitions.WithLabelValues(status).Inc()
}

func PaymentTransition(status string) {
	PaymentTransitions.WithLabelValues(status).Inc()
}
