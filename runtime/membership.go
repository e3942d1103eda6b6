package runtime

import (
	"sync"

	"chat-hub/domain"
)

type userSet map[domain.UserID]struct{}
type roomSet map[domain.RoomID]struct{}

// Membership is the authoritative real-time view of who occupies which
// room. It keeps two mutually inverse maps: a user appears in a room's
// member set exactly when the room appears in that user's room set.
// All mutations are short critical sections; callers perform durable
// writes and broadcasts with the lock released.
type Membership struct {
	mu        sync.Mutex
	roomUsers map[domain.RoomID]userSet
	userRooms map[domain.UserID]roomSet
}

func NewMembership() *Membership {
	return &Membership{
		roomUsers: make(map[domain.RoomID]userSet),
		userRooms: make(map[domain.UserID]roomSet),
	}
}

// Add inserts the user into the room on both sides of the table.
// It reports false when the user was already present, which keeps
// repeated joins idempotent at the set level.
func (m *Membership) Add(roomID domain.RoomID, userID domain.UserID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.roomUsers[roomID]; !ok {
		m.roomUsers[roomID] = make(userSet)
	}
	if _, dup := m.roomUsers[roomID][userID]; dup {
		return false
	}
	m.roomUsers[roomID][userID] = struct{}{}

	if _, ok := m.userRooms[userID]; !ok {
		m.userRooms[userID] = make(roomSet)
	}
	m.userRooms[userID][roomID] = struct{}{}
	return true
}

// Remove deletes the user from the room on both sides and returns the
// number of rooms the user still occupies. A count of zero means the
// user's entry left the table entirely, which is the signal to flip the
// durable online flag off.
func (m *Membership) Remove(roomID domain.RoomID, userID domain.UserID) (remaining int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if users, ok := m.roomUsers[roomID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(m.roomUsers, roomID)
		}
	}
	rooms, ok := m.userRooms[userID]
	if !ok {
		return 0
	}
	delete(rooms, roomID)
	if len(rooms) == 0 {
		delete(m.userRooms, userID)
		return 0
	}
	return len(rooms)
}

// DropUser removes the user from every room at once and returns the rooms
// they occupied, for per-room departure notifications on disconnect.
func (m *Membership) DropUser(userID domain.UserID) []domain.RoomID {
	m.mu.Lock()
	defer m.mu.Unlock()

	rooms := m.userRooms[userID]
	if len(rooms) == 0 {
		delete(m.userRooms, userID)
		return nil
	}
	out := make([]domain.RoomID, 0, len(rooms))
	for roomID := range rooms {
		out = append(out, roomID)
		if users, ok := m.roomUsers[roomID]; ok {
			delete(users, userID)
			if len(users) == 0 {
				delete(m.roomUsers, roomID)
			}
		}
	}
	delete(m.userRooms, userID)
	return out
}

// RoomsOf returns the rooms the user currently occupies.
func (m *Membership) RoomsOf(userID domain.UserID) []domain.RoomID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.RoomID, 0, len(m.userRooms[userID]))
	for roomID := range m.userRooms[userID] {
		out = append(out, roomID)
	}
	return out
}

// MembersOf returns the users currently present in the room.
func (m *Membership) MembersOf(roomID domain.RoomID) []domain.UserID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.UserID, 0, len(m.roomUsers[roomID]))
	for userID := range m.roomUsers[roomID] {
		out = append(out, userID)
	}
	return out
}

// OnlineUserCount reports the number of users present in at least one room.
func (m *Membership) OnlineUserCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.userRooms)
}
