package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weathercard_upstream_calls_total",
			Help: "Total CWA open-data API calls",
		},
		[]string{"source", "status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weathercard_upstream_latency_seconds",
			Help:    "CWA open-data API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	RefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weathercard_refreshes_total",
			Help: "Total aggregate refreshes by result (ok, error, stale)",
		},
		[]string{"result"},
	)

	RefreshesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "weathercard_refreshes_in_flight",
			Help: "Aggregate refreshes currently waiting on upstream data",
		},
	)
)
