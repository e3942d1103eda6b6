// Package runtime hosts the presence and fanout engine: the connection
// registry, the room membership table, the presence coordinator and the
// message fanout. It orchestrates the system without containing storage
// or transport logic.
package runtime

import (
	"context"
	"log/slog"
	"sync"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
)

type session struct {
	user domain.UserID
	sink contract.EventSink
}

// Registry tracks live connections: which user each connection represents
// (bound once, on the first joinRoom carrying an identity) and which rooms
// each connection is subscribed to for delivery. It is safe for concurrent
// use by many connection goroutines.
type Registry struct {
	mu       sync.RWMutex
	conns    map[domain.ConnID]*session
	roomSubs map[domain.RoomID]map[domain.ConnID]struct{}
	connSubs map[domain.ConnID]map[domain.RoomID]struct{}
	log      *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		conns:    make(map[domain.ConnID]*session),
		roomSubs: make(map[domain.RoomID]map[domain.ConnID]struct{}),
		connSubs: make(map[domain.ConnID]map[domain.RoomID]struct{}),
		log:      log.With("component", "registry"),
	}
}

var _ contract.Broadcaster = (*Registry)(nil)

// Register records a freshly opened connection and its delivery sink.
// The connection is unbound until Bind is called.
func (r *Registry) Register(connID domain.ConnID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = &session{sink: sink}
}

// Bind associates the connection with a user identity. A connection binds
// at most one user; rebinding with the same id is a no-op.
func (r *Registry) Bind(connID domain.ConnID, userID domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.conns[connID]; ok {
		s.user = userID
	}
}

// BoundUser returns the user identity bound to the connection, if any.
func (r *Registry) BoundUser(connID domain.ConnID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.conns[connID]
	if !ok || s.user == "" {
		return "", false
	}
	return s.user, true
}

// Subscribe adds the connection to the delivery set of the room.
func (r *Registry) Subscribe(connID domain.ConnID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[connID]; !ok {
		return
	}
	if _, ok := r.roomSubs[roomID]; !ok {
		r.roomSubs[roomID] = make(map[domain.ConnID]struct{})
	}
	r.roomSubs[roomID][connID] = struct{}{}
	if _, ok := r.connSubs[connID]; !ok {
		r.connSubs[connID] = make(map[domain.RoomID]struct{})
	}
	r.connSubs[connID][roomID] = struct{}{}
}

// Unsubscribe removes the connection from the delivery set of the room,
// dropping the room entry entirely once its last subscriber is gone.
func (r *Registry) Unsubscribe(connID domain.ConnID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unsubscribeLocked(connID, roomID)
}

func (r *Registry) unsubscribeLocked(connID domain.ConnID, roomID domain.RoomID) {
	if subs, ok := r.roomSubs[roomID]; ok {
		delete(subs, connID)
		if len(subs) == 0 {
			delete(r.roomSubs, roomID)
		}
	}
	if rooms, ok := r.connSubs[connID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(r.connSubs, connID)
		}
	}
}

// Drop removes the connection and all of its subscriptions, returning the
// user it was bound to. Safe to call twice; the second call reports no
// bound user.
func (r *Registry) Drop(connID domain.ConnID) (domain.UserID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.conns[connID]
	if !ok {
		return "", false
	}
	delete(r.conns, connID)
	for roomID := range r.connSubs[connID] {
		r.unsubscribeLocked(connID, roomID)
	}
	delete(r.connSubs, connID)

	if s.user == "" {
		return "", false
	}
	return s.user, true
}

// ConnCount reports the number of open connections.
func (r *Registry) ConnCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// SubscribedRoomCount reports the number of rooms with at least one
// subscribed connection.
func (r *Registry) SubscribedRoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.roomSubs)
}

// Broadcast delivers the event to every connection subscribed to the room.
// Sinks are snapshotted under the read lock and consumed outside it, so a
// slow consumer never stalls registry mutations.
func (r *Registry) Broadcast(ctx context.Context, roomID domain.RoomID, e event.DomainEvent) {
	r.mu.RLock()
	subs := r.roomSubs[roomID]
	sinks := make([]contract.EventSink, 0, len(subs))
	for connID := range subs {
		if s, ok := r.conns[connID]; ok {
			sinks = append(sinks, s.sink)
		}
	}
	r.mu.RUnlock()

	for _, sink := range sinks {
		if err := sink.Consume(ctx, e); err != nil {
			r.log.Warn("Dropped event for slow subscriber",
				"room_id", roomID, "event", e.Name(), "error", err)
		}
	}
}
