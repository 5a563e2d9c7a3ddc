package httpapi

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the request-facing Prometheus collectors. Registered once
// at server startup and shared across handlers.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	DecodeFailures  prometheus.Counter
}

// NewMetrics constructs and registers the collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pois_esam_requests_total",
			Help: "Total ESAM requests processed, by match outcome (matched or noop) and HTTP status.",
		}, []string{"action", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pois_esam_request_duration_seconds",
			Help:    "ESAM request processing latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
		DecodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pois_scte35_decode_failures_total",
			Help: "Inbound SCTE-35 payloads that failed to decode.",
		}),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.DecodeFailures)
	return m
}
