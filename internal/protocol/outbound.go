package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

type heartbeatAck struct {
	Status string `json:"status"`
}

type heartbeatPing struct {
	Ping bool `json:"ping"`
}

type stateSyncOut struct {
	StateUpdates json.RawMessage `json:"stateUpdates"`
}

type eventBroadcastOut struct {
	EventType          string          `json:"eventType"`
	EventPayload       json.RawMessage `json:"eventPayload,omitempty"`
	SourceConnectionID string          `json:"sourceConnectionId"`
}

type userJoinOut struct {
	ConnectionID string `json:"connectionId"`
	SessionID    string `json:"sessionId"`
}

type userLeaveOut struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId,omitempty"`
}

func marshalEnvelope(t Type, payload any, ts time.Time, clientID, userID string) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	env := Envelope{
		Type:      t,
		Payload:   raw,
		Timestamp: ts.UTC().Format(time.RFC3339Nano),
		ClientID:  clientID,
		UserID:    userID,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", t, err)
	}
	return data, nil
}

// NewHeartbeatAck is the reply to a client HEARTBEAT.
func NewHeartbeatAck(ts time.Time) ([]byte, error) {
	return marshalEnvelope(TypeHeartbeat, heartbeatAck{Status: "alive"}, ts, "", "")
}

// NewHeartbeatPing is the server-initiated liveness ping sent on the
// per-connection heartbeat schedule.
func NewHeartbeatPing(ts time.Time) ([]byte, error) {
	return marshalEnvelope(TypeHeartbeat, heartbeatPing{Ping: true}, ts, "", "")
}

// NewStateSync re-tags an inbound STATE_SYNC for delivery, echoing the state
// updates and attaching the originating connection and user.
func NewStateSync(stateUpdates json.RawMessage, ts time.Time, sourceConnID, sourceUserID string) ([]byte, error) {
	return marshalEnvelope(TypeStateSync, stateSyncOut{StateUpdates: stateUpdates}, ts, sourceConnID, sourceUserID)
}

// NewEventBroadcast wraps an inbound EVENT_BROADCAST for delivery.
func NewEventBroadcast(eventType string, eventPayload json.RawMessage, ts time.Time, sourceConnID, sourceUserID string) ([]byte, error) {
	out := eventBroadcastOut{
		EventType:          eventType,
		EventPayload:       eventPayload,
		SourceConnectionID: sourceConnID,
	}
	return marshalEnvelope(TypeEventBroadcast, out, ts, sourceConnID, sourceUserID)
}

// NewUserJoin greets a freshly registered connection with its identifiers.
func NewUserJoin(connID, sessionID string, ts time.Time) ([]byte, error) {
	return marshalEnvelope(TypeUserJoin, userJoinOut{ConnectionID: connID, SessionID: sessionID}, ts, connID, "")
}

// NewUserLeave announces a completed disconnect to the remaining connections.
func NewUserLeave(connID, userID string, ts time.Time) ([]byte, error) {
	return marshalEnvelope(TypeUserLeave, userLeaveOut{ConnectionID: connID, UserID: userID}, ts, "", "")
}
