package hub

import "github.com/google/uuid"

type idSet map[uuid.UUID]struct{}

// Membership holds the two derived indexes over the registry: room membership
// and user→connections. It stores identifiers only — sends always route back
// through the registry, never through the index. Like the registry it is
// owned by the hub goroutine and carries no locking of its own.
//
// Invariant: no room or user entry exists with an empty member set.
type Membership struct {
	rooms map[string]idSet
	users map[string]idSet
}

func NewMembership() *Membership {
	return &Membership{
		rooms: make(map[string]idSet),
		users: make(map[string]idSet),
	}
}

// JoinRoom adds a connection to a room, creating the room on first join.
func (m *Membership) JoinRoom(room string, id uuid.UUID) {
	members, ok := m.rooms[room]
	if !ok {
		members = make(idSet)
		m.rooms[room] = members
	}
	members[id] = struct{}{}
}

// LeaveRoom removes a connection from a room and deletes the room the moment
// its last member leaves.
func (m *Membership) LeaveRoom(room string, id uuid.UUID) {
	members, ok := m.rooms[room]
	if !ok {
		return
	}
	delete(members, id)
	if len(members) == 0 {
		delete(m.rooms, room)
	}
}

// JoinUser binds a connection into a user's session set.
func (m *Membership) JoinUser(userID string, id uuid.UUID) {
	conns, ok := m.users[userID]
	if !ok {
		conns = make(idSet)
		m.users[userID] = conns
	}
	conns[id] = struct{}{}
}

// LeaveUser removes a connection from a user's session set, deleting the set
// when it empties.
func (m *Membership) LeaveUser(userID string, id uuid.UUID) {
	conns, ok := m.users[userID]
	if !ok {
		return
	}
	delete(conns, id)
	if len(conns) == 0 {
		delete(m.users, userID)
	}
}

// MembersOf returns the member connection IDs of a room, empty if absent.
func (m *Membership) MembersOf(room string) []uuid.UUID {
	return collect(m.rooms[room])
}

// ConnectionsOf returns the connection IDs bound to a user, empty if absent.
func (m *Membership) ConnectionsOf(userID string) []uuid.UUID {
	return collect(m.users[userID])
}

// Purge removes a connection from every room and every user session set.
// Called exactly once per connection, on the disconnect path, after the
// registry entry is gone.
func (m *Membership) Purge(id uuid.UUID) {
	for room, members := range m.rooms {
		delete(members, id)
		if len(members) == 0 {
			delete(m.rooms, room)
		}
	}
	for userID, conns := range m.users {
		delete(conns, id)
		if len(conns) == 0 {
			delete(m.users, userID)
		}
	}
}

// RoomCount returns the number of non-empty rooms.
func (m *Membership) RoomCount() int {
	return len(m.rooms)
}

// UserCount returns the number of users with at least one connection.
func (m *Membership) UserCount() int {
	return len(m.users)
}

// RoomSizes returns member counts per room.
func (m *Membership) RoomSizes() map[string]int {
	sizes := make(map[string]int, len(m.rooms))
	for room, members := range m.rooms {
		sizes[room] = len(members)
	}
	return sizes
}

// UserConnectionCounts returns connection counts per user.
func (m *Membership) UserConnectionCounts() map[string]int {
	counts := make(map[string]int, len(m.users))
	for userID, conns := range m.users {
		counts[userID] = len(conns)
	}
	return counts
}

func collect(set idSet) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}
