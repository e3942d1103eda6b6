//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-hub/domain"
	"chat-hub/domain/event"
)

// Store is the persistence collaborator consumed by the presence
// coordinator and the message fanout. Absent records surface as
// errors.ErrNotFound; callers decide whether that degrades or aborts.
type Store interface {
	FindUser(id domain.UserID) (domain.User, error)
	SetUserOnline(id domain.UserID, online bool) error
	AddRoomMember(roomID domain.RoomID, userID domain.UserID) error
	RemoveRoomMember(roomID domain.RoomID, userID domain.UserID) error
	CreateMessage(senderID domain.UserID, roomID domain.RoomID, text string) (domain.Message, error)
	FindMessageEnriched(id string) (domain.Message, error)
	FindRoomWithMembers(roomID domain.RoomID) (domain.Room, error)
}

// EventSink is one delivery endpoint, usually backed by a connection's
// buffered send channel. Consume must never block the caller for long.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Broadcaster delivers one event to every connection currently subscribed
// to the room.
type Broadcaster interface {
	Broadcast(ctx context.Context, roomID domain.RoomID, e event.DomainEvent)
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
