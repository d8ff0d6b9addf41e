package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lattice_api_requests_total",
		Help: "API requests by endpoint",
	}, []string{"endpoint"})

	apiErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lattice_api_errors_total",
		Help: "API error responses by route and error type",
	}, []string{"route", "type"})

	apiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lattice_api_request_duration_seconds",
		Help:    "API request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	}, []string{"endpoint"})

	decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lattice_decisions_total",
		Help: "Classification decisions by model and outcome",
	}, []string{"model", "outcome"})

	sequenceLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lattice_sequence_length",
		Help:    "Observation sequence length per request",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
)

func observeDecision(model string, rejected bool) {
	outcome := "accepted"
	if rejected {
		outcome = "rejected"
	}
	decisions.WithLabelValues(model, outcome).Inc()
}

func observeSequence(in SequenceInput) {
	n := len(in.Symbols)
	if n == 0 {
		n = len(in.Vectors)
	}
	sequenceLength.Observe(float64(n))
}
