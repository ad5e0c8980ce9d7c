package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "astrotransits",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of transit endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "astrotransits",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by transit endpoint and kind",
		},
		[]string{"endpoint", "kind"},
	)

	StreamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "astrotransits",
			Subsystem: "api",
			Name:      "stream_clients",
			Help:      "Open upcoming-transit websocket streams",
		},
	)
)

// Register adds the endpoint collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors, StreamClients)
	})
}
