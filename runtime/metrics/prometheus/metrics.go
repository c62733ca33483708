// Package prometheus provides Prometheus metrics for transcription sessions.
package prometheus

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "scribe"

var (
	// transcriptionDuration is a histogram of client-side transcription round trips.
	transcriptionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_duration_seconds",
			Help:      "Duration of transcription requests in seconds",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"status"}, // status: success, error
	)

	// transcriptionRequestsTotal counts transcription requests by outcome.
	transcriptionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcription_requests_total",
			Help:      "Total number of transcription requests",
		},
		[]string{"status", "error_kind"},
	)

	// saveDuration is a histogram of persist call duration.
	saveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "save_duration_seconds",
			Help:      "Duration of save requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"session"},
	)

	// saveRequestsTotal counts save requests by session and outcome.
	saveRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "save_requests_total",
			Help:      "Total number of save requests",
		},
		[]string{"session", "status", "error_kind"},
	)

	// sessionTransitionsTotal counts session state transitions.
	sessionTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Total number of session state transitions",
		},
		[]string{"session", "from", "to"},
	)

	// sessionsSubmitting is 1 while a session has a transcription in flight.
	sessionsSubmitting = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_submitting",
			Help:      "Whether a session currently waits on a transcription (0 or 1)",
		},
		[]string{"session"},
	)

	// resultsDiscardedTotal counts late results dropped after an abandon.
	resultsDiscardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_discarded_total",
			Help:      "Total number of transcription results discarded after abandon",
		},
		[]string{"session"},
	)

	// recordingBytes is a histogram of finalized recording sizes.
	recordingBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recording_bytes",
			Help:      "Size of finalized recordings in bytes",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 8),
		},
	)

	// serverRequestDuration is a histogram of backend request handling time.
	serverRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "server_request_duration_seconds",
			Help:      "Duration of backend HTTP requests in seconds",
			Buckets:   []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"endpoint"},
	)

	// serverRequestsTotal counts backend requests by endpoint and status code.
	serverRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "server_requests_total",
			Help:      "Total number of backend HTTP requests",
		},
		[]string{"endpoint", "code"},
	)

	// providerRequestDuration is a histogram of upstream provider call duration.
	providerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of speech and summary provider calls in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "operation"},
	)

	// providerRequestsTotal counts upstream provider calls.
	providerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of speech and summary provider calls",
		},
		[]string{"provider", "operation", "status"},
	)

	allMetrics = []prometheus.Collector{
		transcriptionDuration,
		transcriptionRequestsTotal,
		saveDuration,
		saveRequestsTotal,
		sessionTransitionsTotal,
		sessionsSubmitting,
		resultsDiscardedTotal,
		recordingBytes,
		serverRequestDuration,
		serverRequestsTotal,
		providerRequestDuration,
		providerRequestsTotal,
	}
)

// RecordTranscription records a transcription round trip. errorKind is empty on success.
func RecordTranscription(status, errorKind string, durationSeconds float64) {
	transcriptionDuration.WithLabelValues(status).Observe(durationSeconds)
	transcriptionRequestsTotal.WithLabelValues(status, errorKind).Inc()
}

// RecordSave records a persist call.
func RecordSave(session, status, errorKind string, durationSeconds float64) {
	saveDuration.WithLabelValues(session).Observe(durationSeconds)
	saveRequestsTotal.WithLabelValues(session, status, errorKind).Inc()
}

// RecordTransition records a session state transition.
func RecordTransition(session, from, to string) {
	sessionTransitionsTotal.WithLabelValues(session, from, to).Inc()
}

// SetSubmitting marks whether session has a transcription in flight.
func SetSubmitting(session string, submitting bool) {
	v := 0.0
	if submitting {
		v = 1
	}
	sessionsSubmitting.WithLabelValues(session).Set(v)
}

// RecordDiscardedResult records a late result dropped after abandon.
func RecordDiscardedResult(session string) {
	resultsDiscardedTotal.WithLabelValues(session).Inc()
}

// RecordRecording records the size of a finalized recording.
func RecordRecording(bytes int) {
	recordingBytes.Observe(float64(bytes))
}

// RecordServerRequest records a backend request.
func RecordServerRequest(endpoint string, code int, durationSeconds float64) {
	serverRequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
	serverRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

// RecordProviderRequest records a call to a speech or summary provider.
func RecordProviderRequest(provider, operation, status string, durationSeconds float64) {
	providerRequestDuration.WithLabelValues(provider, operation).Observe(durationSeconds)
	providerRequestsTotal.WithLabelValues(provider, operation, status).Inc()
}
