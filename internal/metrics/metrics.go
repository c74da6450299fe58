package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	leadsCaptured = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_captured_total",
			Help: "Total number of lead forms accepted, by contact method",
		},
		[]string{"method"},
	)

	handoffs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "handoffs_total",
			Help: "Total number of conversations handed off to a human by email",
		},
	)

	transportErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transport_errors_total",
			Help: "Total number of failed calls to external collaborators",
		},
		[]string{"transport"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Number of live chat sessions",
		},
	)

	transcriptsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transcripts_dropped_total",
			Help: "Transcript jobs dropped because the dispatch queue was full",
		},
	)
)

func RecordLeadCaptured(method string) {
	leadsCaptured.WithLabelValues(method).Inc()
}

func RecordHandoff() {
	handoffs.Inc()
}

func RecordTransportError(transport string) {
	transportErrors.WithLabelValues(transport).Inc()
}

func SessionOpened() {
	activeSessions.Inc()
}

func SessionClosed() {
	activeSessions.Dec()
}

func RecordTranscriptDropped() {
	transcriptsDropped.Inc()
}
