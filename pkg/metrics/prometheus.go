package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	computations *prometheus.CounterVec
	matches      *prometheus.CounterVec
	eventsSent   *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder whose collectors are registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		computations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astrotransits_computations_total",
				Help: "Total number of transit computations by kind",
			},
			[]string{"kind"},
		),
		matches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astrotransits_aspect_matches_total",
				Help: "Total number of aspect matches found by aspect name",
			},
			[]string{"aspect"},
		),
		eventsSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astrotransits_events_sent_total",
				Help: "Total number of transit events sent to a backend",
			},
			[]string{"backend", "kind"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astrotransits_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "astrotransits_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordComputation records a finished computation of the given kind.
func (r *Recorder) RecordComputation(kind string) {
	r.computations.WithLabelValues(kind).Inc()
}

// RecordMatch records one aspect match.
func (r *Recorder) RecordMatch(aspect string) {
	r.matches.WithLabelValues(aspect).Inc()
}

// RecordEventSent records an event delivered to a backend.
func (r *Recorder) RecordEventSent(backend, kind string) {
	r.eventsSent.WithLabelValues(backend, kind).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
