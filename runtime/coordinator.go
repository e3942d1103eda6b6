package runtime

import (
	"context"
	"errors"
	"log/slog"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	cherr "chat-hub/errors"
)

// Coordinator is the presence state machine. It reconciles the in-memory
// membership table, the connection registry and the durable online flag on
// every connection lifecycle event, then notifies the affected room.
//
// Durable writes are best effort: a store failure is logged and the
// operation abandoned, never retried and never fatal to other connections.
type Coordinator struct {
	registry   *Registry
	membership *Membership
	store      contract.Store
	broadcast  contract.Broadcaster
	log        *slog.Logger
}

func NewCoordinator(registry *Registry, membership *Membership,
	store contract.Store, broadcast contract.Broadcaster, log *slog.Logger) *Coordinator {
	return &Coordinator{
		registry:   registry,
		membership: membership,
		store:      store,
		broadcast:  broadcast,
		log:        log.With("component", "coordinator"),
	}
}

// Connect records a freshly opened connection and its delivery sink.
// The connection stays unbound until its first joinRoom event.
func (c *Coordinator) Connect(connID domain.ConnID, sink contract.EventSink) {
	c.registry.Register(connID, sink)
}

// JoinRoom binds the connection to the user, adds the user to the room and
// flips the durable online flag on. Every subscriber of the room, the
// joining connection included, receives a userJoined event carrying the
// full active-user snapshot. A vanished user record (TTL expiry) only
// degrades the event: the broadcast still happens with an empty username.
func (c *Coordinator) JoinRoom(ctx context.Context, connID domain.ConnID, roomID domain.RoomID, userID domain.UserID) {
	log := c.log.With("room_id", roomID, "user_id", userID)

	c.registry.Bind(connID, userID)
	c.registry.Subscribe(connID, roomID)
	c.membership.Add(roomID, userID)

	username := ""
	user, err := c.store.FindUser(userID)
	switch {
	case err == nil:
		username = user.Username
	case errors.Is(err, cherr.ErrNotFound):
		log.Warn("Joining user not found in store, broadcasting without username")
	default:
		log.Error("User lookup failed", "error", err)
	}

	// Write-through, not conditional: repeating it on a duplicate join is
	// harmless and keeps the flag converging after partial failures.
	if err := c.store.SetUserOnline(userID, true); err != nil && !errors.Is(err, cherr.ErrNotFound) {
		log.Error("Failed to persist online flag", "error", err)
	}
	if err := c.store.AddRoomMember(roomID, userID); err != nil {
		log.Error("Failed to persist room membership", "error", err)
	}

	var active []domain.Member
	room, err := c.store.FindRoomWithMembers(roomID)
	if err != nil {
		log.Error("Failed to read back active users", "error", err)
	} else {
		active = room.ActiveUsers
	}

	c.broadcast.Broadcast(ctx, roomID, event.UserJoined{
		User:        userID,
		Username:    username,
		Room:        roomID,
		ActiveUsers: active,
	})
}

// LeaveRoom removes the user from one room. The durable online flag flips
// off only once the membership table confirms no other room holds the
// user; leaving one of several rooms keeps them online.
func (c *Coordinator) LeaveRoom(ctx context.Context, connID domain.ConnID, roomID domain.RoomID, userID domain.UserID) {
	log := c.log.With("room_id", roomID, "user_id", userID)

	c.registry.Unsubscribe(connID, roomID)

	if err := c.store.RemoveRoomMember(roomID, userID); err != nil {
		log.Error("Failed to remove durable room membership", "error", err)
	}

	if remaining := c.membership.Remove(roomID, userID); remaining == 0 {
		if err := c.store.SetUserOnline(userID, false); err != nil && !errors.Is(err, cherr.ErrNotFound) {
			log.Error("Failed to persist offline flag", "error", err)
		}
	}

	c.broadcast.Broadcast(ctx, roomID, event.UserLeft{User: userID, Room: roomID})
}

// HandleDisconnect runs when the transport reports the connection gone,
// with no leave events expected from the client. It batches the per-room
// departure across every room the bound user occupied. Idempotent: a
// second call for the same connection finds no bound user and returns.
// Partial durable completion is accepted; there is no rollback.
func (c *Coordinator) HandleDisconnect(ctx context.Context, connID domain.ConnID) {
	userID, ok := c.registry.Drop(connID)
	if !ok {
		return
	}
	log := c.log.With("user_id", userID)

	// The user is gone from all rooms by definition of disconnect.
	if err := c.store.SetUserOnline(userID, false); err != nil && !errors.Is(err, cherr.ErrNotFound) {
		log.Error("Failed to persist offline flag", "error", err)
	}

	for _, roomID := range c.membership.DropUser(userID) {
		if err := c.store.RemoveRoomMember(roomID, userID); err != nil {
			log.Error("Failed to remove durable room membership",
				"room_id", roomID, "error", err)
		}
		c.broadcast.Broadcast(ctx, roomID, event.UserLeft{User: userID, Room: roomID})
	}
	log.Info("Connection cleaned up", "conn_id", connID)
}
