package runtime

import (
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"chat-hub/domain"
	"chat-hub/domain/event"
)

type Sink struct {
	events []event.DomainEvent
}

func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	s.events = append(s.events, e)
	return nil
}

func TestRegistry_Subscribe_One_Room_One_Connection(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry(log)
	connID := domain.NewConnID()
	roomID := domain.RoomID("general")
	sink := &Sink{}

	// Given no connection is registered
	req.Zero(registry.ConnCount())
	req.Zero(registry.SubscribedRoomCount())

	// When a connection registers and subscribes a room
	registry.Register(connID, sink)
	registry.Subscribe(connID, roomID)

	// Then
	req.Equal(1, registry.ConnCount())
	req.Equal(1, registry.SubscribedRoomCount())
}

func TestRegistry_Subscribe_Unknown_Connection(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry(log)

	// When a never-registered connection subscribes
	registry.Subscribe(domain.NewConnID(), domain.RoomID("general"))

	// Then no subscription is recorded
	req.Zero(registry.SubscribedRoomCount())
}

func TestRegistry_Bind_And_BoundUser(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry(log)
	connID := domain.NewConnID()
	userID := domain.UserID("alice")
	registry.Register(connID, &Sink{})

	// Given an unbound connection
	_, ok := registry.BoundUser(connID)
	req.False(ok)

	// When an identity binds to the connection
	registry.Bind(connID, userID)

	// Then the identity is retrievable
	bound, ok := registry.BoundUser(connID)
	req.True(ok)
	req.Equal(userID, bound)
}

func TestRegistry_Unsubscribe_Drops_Empty_Room(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry(log)
	connID := domain.NewConnID()
	roomID := domain.RoomID("general")
	registry.Register(connID, &Sink{})
	registry.Subscribe(connID, roomID)

	// When the only subscriber leaves the room
	registry.Unsubscribe(connID, roomID)

	// Then the room entry disappears entirely
	req.Zero(registry.SubscribedRoomCount())
	req.Equal(1, registry.ConnCount())
}

func TestRegistry_Broadcast_Reaches_Only_Subscribers(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry(log)
	roomID := domain.RoomID("general")
	otherRoom := domain.RoomID("random")

	subscriber := &Sink{}
	bystander := &Sink{}
	connSub := domain.NewConnID()
	connOther := domain.NewConnID()
	registry.Register(connSub, subscriber)
	registry.Register(connOther, bystander)
	registry.Subscribe(connSub, roomID)
	registry.Subscribe(connOther, otherRoom)

	// When an event is broadcast to one room
	registry.Broadcast(context.Background(), roomID, event.UserLeft{User: "alice", Room: roomID})

	// Then only the subscriber of that room receives it
	req.Len(subscriber.events, 1)
	req.Empty(bystander.events)
}

func TestRegistry_Drop_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry(log)
	connID := domain.NewConnID()
	userID := domain.UserID("alice")
	registry.Register(connID, &Sink{})
	registry.Bind(connID, userID)
	registry.Subscribe(connID, domain.RoomID("general"))

	// When the connection is dropped twice
	bound, ok := registry.Drop(connID)

	// Then the first drop reports the bound user and clears everything
	req.True(ok)
	req.Equal(userID, bound)
	req.Zero(registry.ConnCount())
	req.Zero(registry.SubscribedRoomCount())

	// And the second drop reports no bound user
	_, ok = registry.Drop(connID)
	req.False(ok)
}
