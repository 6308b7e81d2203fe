package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	outboundRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_agent_requests_total",
			Help: "Outbound requests to the remote agent platform by operation and status.",
		},
		[]string{"operation", "status"},
	)

	runPollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_run_poll_duration_seconds",
			Help:    "Time spent polling a run until it reached a terminal status.",
			Buckets: []float64{0.8, 1.6, 3.2, 6.4, 12.8, 25.6, 51.2, 120},
		},
	)

	runOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_run_outcomes_total",
			Help: "Terminal run statuses observed by the poll loop.",
		},
		[]string{"status"},
	)
)
