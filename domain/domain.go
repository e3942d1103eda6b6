// Package domain contains core concepts of the chat system:
// users, rooms, messages and the identities that tie them together.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type (
	UserID string
	RoomID string
	// ConnID identifies one live transport session. Connections are
	// ephemeral and never persisted.
	ConnID string
)

func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}

// User is the durable account record. Online is reconciled from ephemeral
// room membership and read by non-real-time consumers such as room listings.
type User struct {
	ID        UserID
	Username  string
	Online    bool
	CreatedAt time.Time
}

// Member is a user as seen from inside a room.
type Member struct {
	ID       UserID `json:"id"`
	Username string `json:"displayName"`
	Online   bool   `json:"online"`
}

// Room scopes presence and message fanout. ActiveUsers is the durable
// mirror of the in-memory membership table, enriched with usernames.
type Room struct {
	ID          RoomID
	Name        string
	ActiveUsers []Member
	CreatedAt   time.Time
}

// Message is an immutable chat event, created exactly once per successful
// send. SenderName is filled by the enriched read-back before fanout and
// stays empty when the sender record has expired.
type Message struct {
	ID         uuid.UUID
	SenderID   UserID
	SenderName string
	RoomID     RoomID
	Content    string
	CreatedAt  time.Time
}
