// Package event defines the outbound events fanned out to room subscribers.
package event

import (
	"time"

	"chat-hub/domain"
)

// DomainEvent is anything deliverable to the subscribers of a room.
type DomainEvent interface {
	RoomID() domain.RoomID
	// Name is the wire tag of the event ("userJoined", "userLeft", "newMessage").
	Name() string
}

// UserJoined carries the full membership snapshot of the room at the time
// of the join, so late observers can rebuild their presence view from a
// single event.
type UserJoined struct {
	User        domain.UserID   `json:"userId"`
	Username    string          `json:"displayName"`
	Room        domain.RoomID   `json:"roomId"`
	ActiveUsers []domain.Member `json:"activeUsers"`
}

func (e UserJoined) RoomID() domain.RoomID { return e.Room }
func (e UserJoined) Name() string          { return "userJoined" }

type UserLeft struct {
	User domain.UserID `json:"userId"`
	Room domain.RoomID `json:"roomId"`
}

func (e UserLeft) RoomID() domain.RoomID { return e.Room }
func (e UserLeft) Name() string          { return "userLeft" }

type Sender struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"displayName"`
}

type NewMessage struct {
	ID        string        `json:"id"`
	Sender    Sender        `json:"sender"`
	Room      domain.RoomID `json:"-"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"createdAt"`
}

func (e NewMessage) RoomID() domain.RoomID { return e.Room }
func (e NewMessage) Name() string          { return "newMessage" }
