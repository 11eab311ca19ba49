package hub

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/3bebepapa/agentforge-v2.0/internal/metrics"
	"github.com/3bebepapa/agentforge-v2.0/internal/protocol"
)

const (
	commandBufferSize = 256
	commandTimeout    = 5 * time.Second
	stopTimeout       = 10 * time.Second
)

// Options tunes the hub's liveness behavior.
type Options struct {
	// HeartbeatInterval is the per-connection heartbeat ping period.
	HeartbeatInterval time.Duration
	// SweepInterval is the period of the global inactivity sweep.
	SweepInterval time.Duration
	// IdleTimeout is the inactivity age at which the sweep evicts a connection.
	IdleTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 30 * time.Second
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = 30 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 5 * time.Minute
	}
	return o
}

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type acceptCmd struct {
	baseHubCmd
	connection   *websocket.Conn
	sessionID    string
	replyChannel chan uuid.UUID
}

type inboundCmd struct {
	baseHubCmd
	id   uuid.UUID
	data []byte
}

type disconnectCmd struct {
	baseHubCmd
	id     uuid.UUID
	reason string
}

type statsCmd struct {
	baseHubCmd
	replyChannel chan Stats
}

type stopCmd struct {
	baseHubCmd
}

// UserSessions is one entry of the per-user connection counts in Stats.
type UserSessions struct {
	UserID      string `json:"userId"`
	ClientCount int    `json:"clientCount"`
}

// RoomSize is one entry of the per-room member counts in Stats.
type RoomSize struct {
	RoomID      string `json:"roomId"`
	ClientCount int    `json:"clientCount"`
}

// Stats is a read-only snapshot of the hub's state.
type Stats struct {
	TotalConnections int            `json:"totalConnections"`
	TotalUsers       int            `json:"totalUsers"`
	TotalRooms       int            `json:"totalRooms"`
	ClientsPerUser   []UserSessions `json:"clientsPerUser"`
	RoomSizes        []RoomSize     `json:"roomSizes"`
}

// Hub routes state-sync and event messages between connections. A single
// goroutine owns the registry and membership index; the public methods turn
// calls into commands on the hub channel.
type Hub struct {
	cmdCh    chan hubCmd
	clock    clockwork.Clock
	registry *Registry
	index    *Membership
	opts     Options
	done     chan struct{}
}

// New creates a hub and starts its goroutine. Each call returns an isolated
// instance; nothing is process-global.
func New(clock clockwork.Clock, opts Options) *Hub {
	h := &Hub{
		cmdCh:    make(chan hubCmd, commandBufferSize),
		clock:    clock,
		registry: NewRegistry(clock),
		index:    NewMembership(),
		opts:     opts.withDefaults(),
		done:     make(chan struct{}),
	}
	go h.run()
	return h
}

// Accept registers a new transport connection and returns its identifier.
// The per-connection heartbeat starts immediately and a USER_JOIN is sent to
// the new connection.
func (h *Hub) Accept(connection *websocket.Conn, sessionID string) (uuid.UUID, error) {
	replyCh := make(chan uuid.UUID, 1)
	h.cmdCh <- acceptCmd{connection: connection, sessionID: sessionID, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case id := <-replyCh:
		return id, nil
	case <-timer.Chan():
		return uuid.Nil, fmt.Errorf("accept command timed out after %v", commandTimeout)
	}
}

// HandleInbound routes one raw frame received from a connection.
func (h *Hub) HandleInbound(id uuid.UUID, data []byte) {
	h.cmdCh <- inboundCmd{id: id, data: data}
}

// Disconnect runs the disconnect procedure for a connection. Safe to invoke
// more than once for the same identifier.
func (h *Hub) Disconnect(id uuid.UUID) {
	h.cmdCh <- disconnectCmd{id: id, reason: "transport_closed"}
}

// Stats returns a snapshot of connection, user, and room counts.
func (h *Hub) Stats() (Stats, error) {
	replyCh := make(chan Stats, 1)
	h.cmdCh <- statsCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case stats := <-replyCh:
		return stats, nil
	case <-timer.Chan():
		return Stats{}, fmt.Errorf("stats command timed out after %v", commandTimeout)
	}
}

// Stop shuts down the hub, sending close frames to every client. Blocks
// until the hub goroutine has exited or the stop timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timeout := h.clock.NewTimer(stopTimeout)
	defer timeout.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timeout.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
		metrics.HubStopTimeoutsTotal.Inc()
	}
}

func (h *Hub) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			metrics.HubPanicsTotal.Inc()
			h.closeAllClients("hub panic")
			close(h.done)
		}
	}()

	sweepTicker := h.clock.NewTicker(h.opts.SweepInterval)
	defer sweepTicker.Stop()

	depthTicker := h.clock.NewTicker(1 * time.Second)
	defer depthTicker.Stop()

	for {
		select {
		case <-depthTicker.Chan():
			metrics.HubCommandChannelDepth.Set(float64(len(h.cmdCh)))
		case <-sweepTicker.Chan():
			h.sweep()
		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case acceptCmd:
				h.handleAccept(c)
			case inboundCmd:
				h.handleInbound(c.id, c.data)
			case disconnectCmd:
				h.disconnect(c.id, c.reason)
			case statsCmd:
				c.replyChannel <- h.snapshot()
			case stopCmd:
				h.handleStop()
				close(h.done)
				return
			default:
				slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		}
	}
}

func (h *Hub) handleAccept(c acceptCmd) {
	writer := newClientWriter(c.connection, h.clock, h.opts.HeartbeatInterval)
	conn := h.registry.Register(writer, c.sessionID)
	h.syncGauges()

	slog.Info("Connection registered",
		"connection_id", conn.ID.String(),
		"session_id", conn.SessionID,
		"total_connections", h.registry.Len(),
	)

	join, err := protocol.NewUserJoin(conn.ID.String(), conn.SessionID, h.clock.Now())
	if err != nil {
		slog.Error("Failed to build USER_JOIN", "error", err)
	} else {
		h.deliver([]uuid.UUID{conn.ID}, join)
	}

	c.replyChannel <- conn.ID
}

// disconnect is the single disconnect procedure: remove from the registry,
// stop the heartbeat, purge the indexes, announce the departure. Idempotent —
// a second call for the same ID finds the registry entry gone and stops.
func (h *Hub) disconnect(id uuid.UUID, reason string) {
	conn := h.registry.Remove(id)
	if conn == nil {
		return
	}

	conn.writer.stop()
	h.index.Purge(id)
	h.syncGauges()
	metrics.DisconnectsTotal.WithLabelValues(reason).Inc()

	slog.Info("Connection removed",
		"connection_id", id.String(),
		"user_id", conn.UserID,
		"reason", reason,
		"remaining_connections", h.registry.Len(),
	)

	leave, err := protocol.NewUserLeave(id.String(), conn.UserID, h.clock.Now())
	if err != nil {
		slog.Error("Failed to build USER_LEAVE", "error", err)
		return
	}
	h.deliver(h.registry.AllIDs(), leave)
}

// sweep evicts every connection whose last activity is older than the idle
// timeout. Heartbeat pings do not count as activity; only inbound traffic does.
func (h *Hub) sweep() {
	cutoff := h.clock.Now().Add(-h.opts.IdleTimeout)
	for _, id := range h.registry.idleSince(cutoff) {
		slog.Info("Evicting idle connection", "connection_id", id.String(), "idle_timeout", h.opts.IdleTimeout)
		metrics.SweepEvictionsTotal.Inc()
		h.disconnect(id, "idle_timeout")
	}
}

// deliver sends data to each target. A failed send never blocks delivery to
// the other targets; it evicts the failing connection instead.
func (h *Hub) deliver(targets []uuid.UUID, data []byte) {
	var failed []uuid.UUID
	for _, id := range targets {
		if h.registry.Send(id, data) {
			metrics.MessagesDeliveredTotal.Inc()
		} else {
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		slog.Warn("Disconnecting slow client", "connection_id", id.String())
		metrics.SlowClientsEvictedTotal.Inc()
		h.disconnect(id, "slow_client")
	}
}

func (h *Hub) snapshot() Stats {
	userCounts := h.index.UserConnectionCounts()
	roomSizes := h.index.RoomSizes()

	stats := Stats{
		TotalConnections: h.registry.Len(),
		TotalUsers:       len(userCounts),
		TotalRooms:       len(roomSizes),
		ClientsPerUser:   make([]UserSessions, 0, len(userCounts)),
		RoomSizes:        make([]RoomSize, 0, len(roomSizes)),
	}
	for userID, count := range userCounts {
		stats.ClientsPerUser = append(stats.ClientsPerUser, UserSessions{UserID: userID, ClientCount: count})
	}
	for room, size := range roomSizes {
		stats.RoomSizes = append(stats.RoomSizes, RoomSize{RoomID: room, ClientCount: size})
	}
	sort.Slice(stats.ClientsPerUser, func(i, j int) bool { return stats.ClientsPerUser[i].UserID < stats.ClientsPerUser[j].UserID })
	sort.Slice(stats.RoomSizes, func(i, j int) bool { return stats.RoomSizes[i].RoomID < stats.RoomSizes[j].RoomID })
	return stats
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "connections", h.registry.Len())
	h.closeAllClients("Server shutting down")
	slog.Info("Hub shutdown complete")
}

func (h *Hub) closeAllClients(reason string) {
	for _, id := range h.registry.AllIDs() {
		conn := h.registry.Remove(id)
		if conn == nil {
			continue
		}
		conn.writer.stopGraceful(reason)
		h.index.Purge(id)
	}
	h.syncGauges()
}

func (h *Hub) syncGauges() {
	metrics.HubConnectedClients.Set(float64(h.registry.Len()))
	metrics.HubActiveRooms.Set(float64(h.index.RoomCount()))
	metrics.HubKnownUsers.Set(float64(h.index.UserCount()))
}
