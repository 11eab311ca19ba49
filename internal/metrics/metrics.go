package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Hub Metrics
var (
	// HubConnectedClients tracks the number of live WebSocket connections
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_clients",
			Help: "Number of live WebSocket connections",
		},
	)

	// HubActiveRooms tracks the number of rooms with at least one member
	HubActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_active_rooms",
			Help: "Number of rooms with at least one member",
		},
	)

	// HubKnownUsers tracks the number of user identities with at least one connection
	HubKnownUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_known_users",
			Help: "Number of user identities with at least one bound connection",
		},
	)

	// HubCommandChannelDepth tracks current command channel depth
	HubCommandChannelDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_command_channel_depth",
			Help: "Current hub command channel depth",
		},
	)

	// HubStopTimeoutsTotal tracks hub stops that exceeded timeout
	HubStopTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_stop_timeouts_total",
			Help: "Hub stops that exceeded the graceful timeout",
		},
	)

	// HubPanicsTotal tracks hub panic recoveries
	HubPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_panics_total",
			Help: "Total hub panic recoveries",
		},
	)
)

// Routing Metrics
var (
	// MessagesRoutedTotal tracks inbound messages routed by type
	MessagesRoutedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_routed_total",
			Help: "Inbound messages routed by message type",
		},
		[]string{"type"},
	)

	// MessagesDeliveredTotal tracks outbound deliveries to individual connections
	MessagesDeliveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_delivered_total",
			Help: "Outbound messages delivered to individual connections",
		},
	)

	// ProtocolFaultsTotal tracks dropped malformed or unknown-type messages
	ProtocolFaultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "protocol_faults_total",
			Help: "Inbound messages dropped as malformed or unknown type",
		},
	)
)

// Connection Lifecycle Metrics
var (
	// DisconnectsTotal tracks completed disconnect procedures by reason
	DisconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disconnects_total",
			Help: "Completed disconnect procedures by reason",
		},
		[]string{"reason"},
	)

	// SlowClientsEvictedTotal tracks clients evicted for a full send buffer
	SlowClientsEvictedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slow_clients_evicted_total",
			Help: "Clients evicted because their send buffer was full",
		},
	)

	// SweepEvictionsTotal tracks clients evicted by the inactivity sweep
	SweepEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_evictions_total",
			Help: "Clients evicted by the periodic inactivity sweep",
		},
	)

	// ConnectionsRejectedTotal tracks upgrade requests rejected by admission limits
	ConnectionsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connections_rejected_total",
			Help: "WebSocket upgrade requests rejected by admission limits",
		},
		[]string{"reason"},
	)

	// WebSocketMessageSendDuration tracks individual write latency in seconds
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)
)
