// Package observability holds the Prometheus collectors and OpenTelemetry setup shared by the service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inertus_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CrisisDetections counts PsychAI messages that matched a crisis keyword.
	CrisisDetections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inertus_crisis_detections_total",
		Help: "Total number of chat messages that triggered the crisis response",
	})

	// AssistantReplies counts assistant replies by backend and outcome.
	AssistantReplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inertus_assistant_replies_total",
		Help: "Total number of assistant replies by backend and outcome",
	}, []string{"backend", "outcome"})

	// NotificationsCreated counts persisted notifications by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inertus_notifications_created_total",
		Help: "Total number of notifications created",
	}, []string{"type"})

	// OutboxDelivered counts outbox events published to their room.
	OutboxDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inertus_outbox_delivered_total",
		Help: "Total number of outbox events delivered",
	})

	// OutboxFailures counts failed outbox delivery attempts; abandoned is "true" once max attempts are spent.
	OutboxFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inertus_outbox_failures_total",
		Help: "Total number of failed outbox delivery attempts",
	}, []string{"abandoned"})

	// WebSocketConnections is the gauge of active websocket connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inertus_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inertus_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)
