package hub

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembership_JoinAndLeaveRoom(t *testing.T) {
	index := NewMembership()
	a, b := uuid.New(), uuid.New()

	index.JoinRoom("global", a)
	index.JoinRoom("global", b)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, index.MembersOf("global"))
	assert.Equal(t, 1, index.RoomCount())

	index.LeaveRoom("global", a)
	assert.ElementsMatch(t, []uuid.UUID{b}, index.MembersOf("global"))

	// Last member leaving deletes the room entry
	index.LeaveRoom("global", b)
	assert.Empty(t, index.MembersOf("global"))
	assert.Zero(t, index.RoomCount())
}

func TestMembership_LeaveUnknownRoomIsNoop(t *testing.T) {
	index := NewMembership()
	index.LeaveRoom("nowhere", uuid.New())
	assert.Zero(t, index.RoomCount())
}

func TestMembership_UserSessionSet(t *testing.T) {
	index := NewMembership()
	a, b := uuid.New(), uuid.New()

	// Multiple simultaneous connections per user
	index.JoinUser("u1", a)
	index.JoinUser("u1", b)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, index.ConnectionsOf("u1"))
	assert.Equal(t, 1, index.UserCount())

	index.LeaveUser("u1", a)
	index.LeaveUser("u1", b)
	assert.Empty(t, index.ConnectionsOf("u1"))
	assert.Zero(t, index.UserCount())
}

func TestMembership_ReadsOnAbsentKeysAreEmpty(t *testing.T) {
	index := NewMembership()
	assert.Empty(t, index.MembersOf("missing"))
	assert.Empty(t, index.ConnectionsOf("missing"))
}

func TestMembership_PurgeRemovesEverywhere(t *testing.T) {
	index := NewMembership()
	victim, other := uuid.New(), uuid.New()

	index.JoinRoom("alpha", victim)
	index.JoinRoom("alpha", other)
	index.JoinRoom("beta", victim)
	index.JoinUser("u1", victim)
	index.JoinUser("u1", other)
	index.JoinUser("u2", victim)

	index.Purge(victim)

	// Victim absent from every set
	assert.ElementsMatch(t, []uuid.UUID{other}, index.MembersOf("alpha"))
	assert.ElementsMatch(t, []uuid.UUID{other}, index.ConnectionsOf("u1"))

	// Sets that became empty are gone, not left as residual entries
	assert.Equal(t, 1, index.RoomCount())
	assert.Equal(t, 1, index.UserCount())
	require.Empty(t, index.MembersOf("beta"))
	require.Empty(t, index.ConnectionsOf("u2"))
}

func TestMembership_PurgeIsIdempotent(t *testing.T) {
	index := NewMembership()
	id := uuid.New()
	index.JoinRoom("r", id)

	index.Purge(id)
	index.Purge(id)

	assert.Zero(t, index.RoomCount())
}

func TestMembership_Counts(t *testing.T) {
	index := NewMembership()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	index.JoinRoom("global", a)
	index.JoinRoom("global", b)
	index.JoinRoom("private", c)
	index.JoinUser("u1", a)
	index.JoinUser("u1", b)

	assert.Equal(t, map[string]int{"global": 2, "private": 1}, index.RoomSizes())
	assert.Equal(t, map[string]int{"u1": 2}, index.UserConnectionCounts())
}
