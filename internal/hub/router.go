package hub

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/3bebepapa/agentforge-v2.0/internal/metrics"
	"github.com/3bebepapa/agentforge-v2.0/internal/protocol"
)

// handleInbound interprets one client frame. Runs on the hub goroutine.
// Malformed frames are protocol faults: logged, dropped, connection kept.
func (h *Hub) handleInbound(id uuid.UUID, data []byte) {
	h.registry.Touch(id)

	conn := h.registry.Get(id)
	if conn == nil {
		// Evicted concurrently with an in-flight message.
		return
	}

	msg, err := protocol.ParseInbound(data)
	if err != nil {
		slog.Warn("Dropping malformed message", "connection_id", id.String(), "error", err)
		metrics.ProtocolFaultsTotal.Inc()
		return
	}

	metrics.MessagesRoutedTotal.WithLabelValues(string(msg.Type)).Inc()

	switch msg.Type {
	case protocol.TypeSubscribe:
		h.handleSubscribe(conn, msg.Subscribe)
	case protocol.TypeUnsubscribe:
		h.handleUnsubscribe(conn, msg.Unsubscribe)
	case protocol.TypeHeartbeat:
		h.handleHeartbeat(conn)
	case protocol.TypeStateSync:
		h.handleStateSync(conn, msg.StateSync)
	case protocol.TypeEventBroadcast:
		h.handleEventBroadcast(conn, msg.Event)
	}
}

func (h *Hub) handleSubscribe(conn *Connection, p *protocol.SubscribePayload) {
	if p.UserID != "" && p.UserID != conn.UserID {
		// Rebinding moves the connection between user session sets so the
		// index never holds it under a stale identity.
		if conn.UserID != "" {
			h.index.LeaveUser(conn.UserID, conn.ID)
		}
		h.registry.BindUser(conn.ID, p.UserID)
		h.index.JoinUser(p.UserID, conn.ID)
	}

	for _, topic := range p.Subscriptions {
		conn.Subscribe(topic)
	}
	for _, room := range p.Rooms {
		h.index.JoinRoom(room, conn.ID)
	}
	h.syncGauges()

	slog.Debug("Subscription updated",
		"connection_id", conn.ID.String(),
		"user_id", conn.UserID,
		"topics", len(p.Subscriptions),
		"rooms", len(p.Rooms),
	)
}

// handleUnsubscribe removes topics and rooms. The user binding stays.
func (h *Hub) handleUnsubscribe(conn *Connection, p *protocol.UnsubscribePayload) {
	for _, topic := range p.Subscriptions {
		conn.Unsubscribe(topic)
	}
	for _, room := range p.Rooms {
		h.index.LeaveRoom(room, conn.ID)
	}
	h.syncGauges()
}

func (h *Hub) handleHeartbeat(conn *Connection) {
	ack, err := protocol.NewHeartbeatAck(h.clock.Now())
	if err != nil {
		slog.Error("Failed to build heartbeat ack", "error", err)
		return
	}
	h.deliver([]uuid.UUID{conn.ID}, ack)
}

// handleStateSync resolves targets per the addressing rule: listed users'
// connections when targetUsers is non-empty, otherwise everyone; the sender
// is removed unless excludeSelf is explicitly false.
func (h *Hub) handleStateSync(conn *Connection, p *protocol.StateSyncPayload) {
	var targets []uuid.UUID
	if len(p.TargetUsers) > 0 {
		seen := make(idSet)
		for _, userID := range p.TargetUsers {
			for _, id := range h.index.ConnectionsOf(userID) {
				seen[id] = struct{}{}
			}
		}
		targets = collect(seen)
	} else {
		targets = h.registry.AllIDs()
	}

	if p.ShouldExcludeSelf() {
		targets = without(targets, conn.ID)
	}

	out, err := protocol.NewStateSync(p.StateUpdates, h.clock.Now(), conn.ID.String(), conn.UserID)
	if err != nil {
		slog.Error("Failed to build STATE_SYNC", "error", err)
		return
	}
	h.deliver(targets, out)
}

// handleEventBroadcast delivers to the room's members, or everyone when no
// room is given. The sender is always excluded from its own event.
func (h *Hub) handleEventBroadcast(conn *Connection, p *protocol.EventBroadcastPayload) {
	var targets []uuid.UUID
	if p.Room != "" {
		targets = h.index.MembersOf(p.Room)
	} else {
		targets = h.registry.AllIDs()
	}
	targets = without(targets, conn.ID)

	out, err := protocol.NewEventBroadcast(p.EventType, p.EventPayload, h.clock.Now(), conn.ID.String(), conn.UserID)
	if err != nil {
		slog.Error("Failed to build EVENT_BROADCAST", "error", err)
		return
	}
	h.deliver(targets, out)
}

func without(ids []uuid.UUID, exclude uuid.UUID) []uuid.UUID {
	filtered := ids[:0]
	for _, id := range ids {
		if id != exclude {
			filtered = append(filtered, id)
		}
	}
	return filtered
}
