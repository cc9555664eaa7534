package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devmgr_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "devmgr_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// Transport metrics
	MQTTMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devmgr_mqtt_messages_total",
			Help: "Messages received from the broker",
		},
		[]string{"status"}, // stored, malformed, unknown_topic, failed
	)

	MQTTConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "devmgr_mqtt_connected",
			Help: "1 while the broker connection is up",
		},
	)

	// Ingestion metrics
	ReadingsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "devmgr_readings_persisted_total",
			Help: "Readings written to the database",
		},
	)

	UnknownTopics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "devmgr_unknown_topics_total",
			Help: "Readings dropped because no sensor owns the topic",
		},
	)

	// Alerting metrics
	RuleEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devmgr_rule_evaluations_total",
			Help: "Alert rule evaluations by outcome",
		},
		[]string{"outcome"}, // matched, not_matched, invalid
	)

	AlertsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devmgr_alerts_dispatched_total",
			Help: "Alert deliveries by channel and result",
		},
		[]string{"channel", "status"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devmgr_events_published_total",
			Help: "Reading events written to Kafka",
		},
		[]string{"status"},
	)
)
