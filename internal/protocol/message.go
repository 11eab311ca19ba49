package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type tags the wire envelope variant.
type Type string

const (
	TypeStateSync      Type = "STATE_SYNC"
	TypeEventBroadcast Type = "EVENT_BROADCAST"
	TypeUserJoin       Type = "USER_JOIN"
	TypeUserLeave      Type = "USER_LEAVE"
	TypeHeartbeat      Type = "HEARTBEAT"
	TypeSubscribe      Type = "SUBSCRIBE"
	TypeUnsubscribe    Type = "UNSUBSCRIBE"
)

var (
	// ErrUnknownType indicates an unrecognized type tag.
	ErrUnknownType = errors.New("unknown message type")
	// ErrServerOnlyType indicates a client sent a type only the server may emit.
	ErrServerOnlyType = errors.New("server-generated message type not accepted from clients")
	// ErrMalformedPayload indicates the payload does not match the shape for its tag.
	ErrMalformedPayload = errors.New("malformed payload")
)

// Envelope is the wire unit. ClientID and UserID are attached by the server
// on outbound messages and ignored on inbound ones (SUBSCRIBE carries its
// userId inside the payload instead).
type Envelope struct {
	Type      Type            `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp string          `json:"timestamp"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
}

type SubscribePayload struct {
	UserID        string   `json:"userId,omitempty"`
	Subscriptions []string `json:"subscriptions,omitempty"`
	Rooms         []string `json:"rooms,omitempty"`
}

type UnsubscribePayload struct {
	Subscriptions []string `json:"subscriptions,omitempty"`
	Rooms         []string `json:"rooms,omitempty"`
}

type HeartbeatPayload struct {
	Ping bool `json:"ping,omitempty"`
}

type StateSyncPayload struct {
	StateUpdates json.RawMessage `json:"stateUpdates"`
	TargetUsers  []string        `json:"targetUsers,omitempty"`
	ExcludeSelf  *bool           `json:"excludeSelf,omitempty"`
}

// ShouldExcludeSelf reports the excludeSelf flag, defaulting to true when absent.
func (p *StateSyncPayload) ShouldExcludeSelf() bool {
	return p.ExcludeSelf == nil || *p.ExcludeSelf
}

type EventBroadcastPayload struct {
	EventType    string          `json:"eventType"`
	EventPayload json.RawMessage `json:"eventPayload,omitempty"`
	Room         string          `json:"room,omitempty"`
}

// Inbound is the parsed form of a client message. Exactly one variant field
// is non-nil, matching Type.
type Inbound struct {
	Type        Type
	Subscribe   *SubscribePayload
	Unsubscribe *UnsubscribePayload
	Heartbeat   *HeartbeatPayload
	StateSync   *StateSyncPayload
	Event       *EventBroadcastPayload
}

// ParseInbound validates and decodes a raw client frame. All failures are
// protocol faults: the caller logs and drops the message, nothing more.
func ParseInbound(data []byte) (*Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	msg := &Inbound{Type: env.Type}
	payload := env.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	switch env.Type {
	case TypeSubscribe:
		var p SubscribePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("%w: subscribe: %w", ErrMalformedPayload, err)
		}
		msg.Subscribe = &p
	case TypeUnsubscribe:
		var p UnsubscribePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("%w: unsubscribe: %w", ErrMalformedPayload, err)
		}
		msg.Unsubscribe = &p
	case TypeHeartbeat:
		var p HeartbeatPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("%w: heartbeat: %w", ErrMalformedPayload, err)
		}
		msg.Heartbeat = &p
	case TypeStateSync:
		var p StateSyncPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("%w: state sync: %w", ErrMalformedPayload, err)
		}
		if len(p.StateUpdates) == 0 {
			return nil, fmt.Errorf("%w: state sync: missing stateUpdates", ErrMalformedPayload)
		}
		msg.StateSync = &p
	case TypeEventBroadcast:
		var p EventBroadcastPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("%w: event broadcast: %w", ErrMalformedPayload, err)
		}
		if p.EventType == "" {
			return nil, fmt.Errorf("%w: event broadcast: missing eventType", ErrMalformedPayload)
		}
		msg.Event = &p
	case TypeUserJoin, TypeUserLeave:
		return nil, fmt.Errorf("%w: %s", ErrServerOnlyType, env.Type)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	return msg, nil
}
