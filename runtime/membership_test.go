package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chat-hub/domain"
)

func TestMembership_Add_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	m := NewMembership()
	roomID := domain.RoomID("general")
	userID := domain.UserID("alice")

	// When the same user joins the same room twice
	first := m.Add(roomID, userID)
	second := m.Add(roomID, userID)

	// Then only the first insert reports a change
	req.True(first)
	req.False(second)
	req.Len(m.MembersOf(roomID), 1)
	req.Len(m.RoomsOf(userID), 1)
}

func TestMembership_Both_Sides_Stay_Inverse(t *testing.T) {
	req := require.New(t)
	m := NewMembership()
	alice := domain.UserID("alice")
	bob := domain.UserID("bob")
	general := domain.RoomID("general")
	random := domain.RoomID("random")

	// Given users spread across rooms
	m.Add(general, alice)
	m.Add(random, alice)
	m.Add(general, bob)

	// Then each side mirrors the other
	req.ElementsMatch([]domain.UserID{alice, bob}, m.MembersOf(general))
	req.ElementsMatch([]domain.RoomID{general, random}, m.RoomsOf(alice))
	req.ElementsMatch([]domain.RoomID{general}, m.RoomsOf(bob))
	req.Equal(2, m.OnlineUserCount())
}

func TestMembership_Remove_Reports_Remaining_Rooms(t *testing.T) {
	req := require.New(t)
	m := NewMembership()
	alice := domain.UserID("alice")
	general := domain.RoomID("general")
	random := domain.RoomID("random")
	m.Add(general, alice)
	m.Add(random, alice)

	// When the user leaves one of two rooms
	remaining := m.Remove(general, alice)

	// Then one room remains and the user stays in the table
	req.Equal(1, remaining)
	req.Equal(1, m.OnlineUserCount())

	// When the user leaves the last room
	remaining = m.Remove(random, alice)

	// Then the user entry is gone
	req.Zero(remaining)
	req.Zero(m.OnlineUserCount())
}

func TestMembership_Remove_Absent_User(t *testing.T) {
	req := require.New(t)
	m := NewMembership()

	// When removing a user who never joined
	remaining := m.Remove(domain.RoomID("general"), domain.UserID("ghost"))

	// Then the call is a harmless no-op
	req.Zero(remaining)
}

func TestMembership_DropUser_Clears_Every_Room(t *testing.T) {
	req := require.New(t)
	m := NewMembership()
	alice := domain.UserID("alice")
	bob := domain.UserID("bob")
	general := domain.RoomID("general")
	random := domain.RoomID("random")
	m.Add(general, alice)
	m.Add(random, alice)
	m.Add(general, bob)

	// When the user is dropped outright
	rooms := m.DropUser(alice)

	// Then every room they occupied is reported once
	req.ElementsMatch([]domain.RoomID{general, random}, rooms)
	req.Empty(m.RoomsOf(alice))
	req.ElementsMatch([]domain.UserID{bob}, m.MembersOf(general))
	req.Empty(m.MembersOf(random))

	// And dropping again yields nothing
	req.Empty(m.DropUser(alice))
}
