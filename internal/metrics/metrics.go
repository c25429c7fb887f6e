package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "portfolio_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "route"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_upstream_latency_seconds",
			Help:    "Latency of calls to the AI service",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		},
		[]string{"operation", "outcome"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_relay_active_sessions",
			Help: "Number of registered chat sessions",
		},
	)

	ActiveConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_relay_active_conversations",
			Help: "Number of tracked conversations",
		},
	)

	OpenConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_realtime_open_connections",
			Help: "Number of open websocket connections",
		},
	)

	RelayEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_relay_events_total",
			Help: "Inbound relay events by type",
		},
		[]string{"type"},
	)

	ChatOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_relay_chat_total",
			Help: "Relayed chat messages by outcome",
		},
		[]string{"outcome"},
	)

	Evictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_relay_evictions_total",
			Help: "Entries evicted by the idle reaper",
		},
		[]string{"kind"},
	)

	DroppedEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_realtime_dropped_events_total",
			Help: "Outbound events dropped because a connection queue was full",
		},
	)
)
