package hub

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Connection is the registry entry for one live transport session. The
// registry is its single owner; other components address it by ID only.
type Connection struct {
	ID            uuid.UUID
	SessionID     string
	UserID        string
	CreatedAt     time.Time
	LastActivity  time.Time
	subscriptions map[string]struct{}
	writer        *clientWriter
}

// Subscribe adds a topic to the connection's subscription set.
func (c *Connection) Subscribe(topic string) {
	c.subscriptions[topic] = struct{}{}
}

// Unsubscribe removes a topic from the connection's subscription set.
func (c *Connection) Unsubscribe(topic string) {
	delete(c.subscriptions, topic)
}

// Subscribed reports whether the connection is subscribed to topic.
func (c *Connection) Subscribed(topic string) bool {
	_, ok := c.subscriptions[topic]
	return ok
}

// SubscriptionCount returns the size of the subscription set.
func (c *Connection) SubscriptionCount() int {
	return len(c.subscriptions)
}

// Registry owns the authoritative set of live connections. It is not
// goroutine-safe: all access happens on the hub goroutine.
type Registry struct {
	clock       clockwork.Clock
	connections map[uuid.UUID]*Connection
}

func NewRegistry(clock clockwork.Clock) *Registry {
	return &Registry{
		clock:       clock,
		connections: make(map[uuid.UUID]*Connection),
	}
}

// Register stores a new connection and returns it. The identifier is unique
// for the process lifetime.
func (r *Registry) Register(writer *clientWriter, sessionID string) *Connection {
	now := r.clock.Now()
	conn := &Connection{
		ID:            uuid.New(),
		SessionID:     sessionID,
		CreatedAt:     now,
		LastActivity:  now,
		subscriptions: make(map[string]struct{}),
		writer:        writer,
	}
	r.connections[conn.ID] = conn
	return conn
}

// Touch updates last-activity. Unknown IDs are a no-op: the connection may
// have been evicted concurrently with an in-flight message.
func (r *Registry) Touch(id uuid.UUID) {
	if conn, ok := r.connections[id]; ok {
		conn.LastActivity = r.clock.Now()
	}
}

// BindUser sets the user identifier on a connection. Idempotent; logged and
// ignored if the connection is unknown.
func (r *Registry) BindUser(id uuid.UUID, userID string) {
	conn, ok := r.connections[id]
	if !ok {
		slog.Debug("BindUser on unknown connection", "connection_id", id.String(), "user_id", userID)
		return
	}
	conn.UserID = userID
}

// Send attempts delivery to a connection. It returns false when the send
// buffer is full, which the caller must treat as a disconnect — there is no
// retry or buffering beyond the writer's own channel. Unknown IDs are a
// successful no-op.
func (r *Registry) Send(id uuid.UUID, data []byte) bool {
	conn, ok := r.connections[id]
	if !ok {
		return true
	}
	return conn.writer.trySend(data)
}

// Remove deletes and returns the entry, or nil if already absent. Double
// removal is safe.
func (r *Registry) Remove(id uuid.UUID) *Connection {
	conn, ok := r.connections[id]
	if !ok {
		return nil
	}
	delete(r.connections, id)
	return conn
}

// Get returns the entry or nil.
func (r *Registry) Get(id uuid.UUID) *Connection {
	return r.connections[id]
}

// AllIDs returns the identifiers of every registered connection.
func (r *Registry) AllIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.connections))
	for id := range r.connections {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	return len(r.connections)
}

// idleSince returns the IDs of connections whose last activity is before cutoff.
func (r *Registry) idleSince(cutoff time.Time) []uuid.UUID {
	var idle []uuid.UUID
	for id, conn := range r.connections {
		if conn.LastActivity.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	return idle
}
