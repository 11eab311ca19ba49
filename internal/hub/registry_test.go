package hub

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_UniqueIDs(t *testing.T) {
	registry := NewRegistry(clockwork.NewRealClock())

	seen := make(map[uuid.UUID]struct{})
	for i := 0; i < 100; i++ {
		conn := registry.Register(nil, "sess")
		_, dup := seen[conn.ID]
		require.False(t, dup, "connection IDs must be pairwise distinct")
		seen[conn.ID] = struct{}{}
	}
	assert.Equal(t, 100, registry.Len())
}

func TestRegistry_RegisterSetsTimestamps(t *testing.T) {
	clock := clockwork.NewFakeClock()
	registry := NewRegistry(clock)

	conn := registry.Register(nil, "sess")
	assert.Equal(t, clock.Now(), conn.CreatedAt)
	assert.Equal(t, clock.Now(), conn.LastActivity)
	assert.Zero(t, conn.SubscriptionCount())
}

func TestRegistry_TouchUpdatesLastActivity(t *testing.T) {
	clock := clockwork.NewFakeClock()
	registry := NewRegistry(clock)
	conn := registry.Register(nil, "sess")

	created := conn.LastActivity
	clock.Advance(5 * time.Second)
	registry.Touch(conn.ID)

	assert.True(t, conn.LastActivity.After(created))
}

func TestRegistry_TouchUnknownIsNoop(t *testing.T) {
	registry := NewRegistry(clockwork.NewRealClock())
	registry.Touch(uuid.New()) // must not panic
}

func TestRegistry_BindUser(t *testing.T) {
	registry := NewRegistry(clockwork.NewRealClock())
	conn := registry.Register(nil, "sess")

	registry.BindUser(conn.ID, "u1")
	assert.Equal(t, "u1", conn.UserID)

	// Idempotent
	registry.BindUser(conn.ID, "u1")
	assert.Equal(t, "u1", conn.UserID)

	// Unknown connection is logged, not an error
	registry.BindUser(uuid.New(), "u2")
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	registry := NewRegistry(clockwork.NewRealClock())
	conn := registry.Register(nil, "sess")

	removed := registry.Remove(conn.ID)
	require.NotNil(t, removed)
	assert.Equal(t, conn.ID, removed.ID)

	assert.Nil(t, registry.Remove(conn.ID))
	assert.Nil(t, registry.Get(conn.ID))
	assert.Zero(t, registry.Len())
}

func TestRegistry_SendUnknownIsNoop(t *testing.T) {
	registry := NewRegistry(clockwork.NewRealClock())
	assert.True(t, registry.Send(uuid.New(), []byte("x")))
}

func TestRegistry_IdleSince(t *testing.T) {
	clock := clockwork.NewFakeClock()
	registry := NewRegistry(clock)

	stale := registry.Register(nil, "stale")
	clock.Advance(10 * time.Second)
	fresh := registry.Register(nil, "fresh")

	cutoff := clock.Now().Add(-5 * time.Second)
	idle := registry.idleSince(cutoff)
	require.Len(t, idle, 1)
	assert.Equal(t, stale.ID, idle[0])
	assert.NotEqual(t, fresh.ID, idle[0])
}

func TestConnection_Subscriptions(t *testing.T) {
	registry := NewRegistry(clockwork.NewRealClock())
	conn := registry.Register(nil, "sess")

	conn.Subscribe("agents")
	conn.Subscribe("workflows")
	conn.Subscribe("agents") // set semantics
	assert.Equal(t, 2, conn.SubscriptionCount())
	assert.True(t, conn.Subscribed("agents"))

	conn.Unsubscribe("agents")
	assert.False(t, conn.Subscribed("agents"))
	assert.Equal(t, 1, conn.SubscriptionCount())

	conn.Unsubscribe("never-subscribed") // no-op
}
