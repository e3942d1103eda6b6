package runtime

import (
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-hub/domain"
	"chat-hub/domain/event"
	cherr "chat-hub/errors"
	"chat-hub/mocks"
)

func newCoordinator(t *testing.T) (*Coordinator, *mocks.MockStore, *mocks.MockBroadcaster) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	broadcast := mocks.NewMockBroadcaster(ctrl)
	coordinator := NewCoordinator(NewRegistry(log), NewMembership(), store, broadcast, log)
	return coordinator, store, broadcast
}

func TestCoordinator_JoinRoom_Broadcasts_Snapshot(t *testing.T) {
	req := require.New(t)
	coordinator, store, broadcast := newCoordinator(t)
	connID := domain.NewConnID()
	roomID := domain.RoomID("general")
	userID := domain.UserID("alice")
	coordinator.Connect(connID, &Sink{})

	members := []domain.Member{{ID: "alice", Username: "Alice", Online: true}}

	// Given the store knows the user and the room
	store.EXPECT().FindUser(userID).Return(domain.User{ID: userID, Username: "Alice"}, nil)
	store.EXPECT().SetUserOnline(userID, true).Return(nil)
	store.EXPECT().AddRoomMember(roomID, userID).Return(nil)
	store.EXPECT().FindRoomWithMembers(roomID).
		Return(domain.Room{ID: roomID, ActiveUsers: members}, nil)

	// Given the room receives a userJoined carrying the member snapshot
	broadcast.EXPECT().Broadcast(gomock.Any(), roomID, gomock.Any()).Do(
		func(ctx context.Context, r domain.RoomID, e event.DomainEvent) {
			joined, ok := e.(event.UserJoined)
			req.True(ok)
			req.Equal(userID, joined.User)
			req.Equal("Alice", joined.Username)
			req.Equal(members, joined.ActiveUsers)
		}).Times(1)

	// When the user joins
	coordinator.JoinRoom(context.Background(), connID, roomID, userID)

	// Then the in-memory table reflects the presence
	req.ElementsMatch([]domain.UserID{userID}, coordinator.membership.MembersOf(roomID))
}

func TestCoordinator_JoinRoom_Twice_Rebroadcasts(t *testing.T) {
	req := require.New(t)
	coordinator, store, broadcast := newCoordinator(t)
	connID := domain.NewConnID()
	roomID := domain.RoomID("general")
	userID := domain.UserID("alice")
	coordinator.Connect(connID, &Sink{})

	// Given durable writes repeat harmlessly on the duplicate join
	store.EXPECT().FindUser(userID).Return(domain.User{ID: userID, Username: "Alice"}, nil).Times(2)
	store.EXPECT().SetUserOnline(userID, true).Return(nil).Times(2)
	store.EXPECT().AddRoomMember(roomID, userID).Return(nil).Times(2)
	store.EXPECT().FindRoomWithMembers(roomID).Return(domain.Room{ID: roomID}, nil).Times(2)

	// Given each join produces a fresh snapshot broadcast
	broadcast.EXPECT().Broadcast(gomock.Any(), roomID, gomock.Any()).Times(2)

	// When the same user joins the same room twice
	coordinator.JoinRoom(context.Background(), connID, roomID, userID)
	coordinator.JoinRoom(context.Background(), connID, roomID, userID)

	// Then membership still lists the user once
	req.Len(coordinator.membership.MembersOf(roomID), 1)
}

func TestCoordinator_JoinRoom_Expired_User_Degrades(t *testing.T) {
	req := require.New(t)
	coordinator, store, broadcast := newCoordinator(t)
	connID := domain.NewConnID()
	roomID := domain.RoomID("general")
	userID := domain.UserID("ghost")
	coordinator.Connect(connID, &Sink{})

	// Given the user record expired out of the store
	store.EXPECT().FindUser(userID).Return(domain.User{}, cherr.ErrNotFound)
	store.EXPECT().SetUserOnline(userID, true).Return(cherr.ErrNotFound)
	store.EXPECT().AddRoomMember(roomID, userID).Return(nil)
	store.EXPECT().FindRoomWithMembers(roomID).Return(domain.Room{ID: roomID}, nil)

	// Given the broadcast still happens, without a username
	broadcast.EXPECT().Broadcast(gomock.Any(), roomID, gomock.Any()).Do(
		func(ctx context.Context, r domain.RoomID, e event.DomainEvent) {
			joined, ok := e.(event.UserJoined)
			req.True(ok)
			req.Empty(joined.Username)
		}).Times(1)

	// When the expired user joins
	coordinator.JoinRoom(context.Background(), connID, roomID, userID)
}

func TestCoordinator_LeaveRoom_Keeps_Online_While_Rooms_Remain(t *testing.T) {
	coordinator, store, broadcast := newCoordinator(t)
	connID := domain.NewConnID()
	general := domain.RoomID("general")
	random := domain.RoomID("random")
	userID := domain.UserID("alice")
	coordinator.Connect(connID, &Sink{})

	store.EXPECT().FindUser(userID).Return(domain.User{ID: userID, Username: "Alice"}, nil).Times(2)
	store.EXPECT().SetUserOnline(userID, true).Return(nil).Times(2)
	store.EXPECT().AddRoomMember(gomock.Any(), userID).Return(nil).Times(2)
	store.EXPECT().FindRoomWithMembers(gomock.Any()).Return(domain.Room{}, nil).Times(2)
	broadcast.EXPECT().Broadcast(gomock.Any(), gomock.Any(), gomock.Any()).Times(2)

	// Given the user occupies two rooms
	coordinator.JoinRoom(context.Background(), connID, general, userID)
	coordinator.JoinRoom(context.Background(), connID, random, userID)

	// Given leaving one room never flips the online flag off
	store.EXPECT().RemoveRoomMember(general, userID).Return(nil)
	broadcast.EXPECT().Broadcast(gomock.Any(), general, event.UserLeft{User: userID, Room: general}).Times(1)

	// When the user leaves one of the two rooms
	coordinator.LeaveRoom(context.Background(), connID, general, userID)

	// Given leaving the last room flips the flag off
	store.EXPECT().RemoveRoomMember(random, userID).Return(nil)
	store.EXPECT().SetUserOnline(userID, false).Return(nil)
	broadcast.EXPECT().Broadcast(gomock.Any(), random, event.UserLeft{User: userID, Room: random}).Times(1)

	// When the user leaves the remaining room
	coordinator.LeaveRoom(context.Background(), connID, random, userID)
}

func TestCoordinator_HandleDisconnect_Batches_Departures(t *testing.T) {
	req := require.New(t)
	coordinator, store, broadcast := newCoordinator(t)
	connID := domain.NewConnID()
	general := domain.RoomID("general")
	random := domain.RoomID("random")
	userID := domain.UserID("alice")
	coordinator.Connect(connID, &Sink{})

	store.EXPECT().FindUser(userID).Return(domain.User{ID: userID, Username: "Alice"}, nil).Times(2)
	store.EXPECT().SetUserOnline(userID, true).Return(nil).Times(2)
	store.EXPECT().AddRoomMember(gomock.Any(), userID).Return(nil).Times(2)
	store.EXPECT().FindRoomWithMembers(gomock.Any()).Return(domain.Room{}, nil).Times(2)
	broadcast.EXPECT().Broadcast(gomock.Any(), gomock.Any(), gomock.Any()).Times(2)

	// Given the user occupies two rooms
	coordinator.JoinRoom(context.Background(), connID, general, userID)
	coordinator.JoinRoom(context.Background(), connID, random, userID)

	// Given disconnect flips the flag off once and notifies each room
	store.EXPECT().SetUserOnline(userID, false).Return(nil).Times(1)
	store.EXPECT().RemoveRoomMember(gomock.Any(), userID).Return(nil).Times(2)

	left := make([]domain.RoomID, 0, 2)
	broadcast.EXPECT().Broadcast(gomock.Any(), gomock.Any(), gomock.Any()).Do(
		func(ctx context.Context, r domain.RoomID, e event.DomainEvent) {
			_, ok := e.(event.UserLeft)
			req.True(ok)
			left = append(left, r)
		}).Times(2)

	// When the connection drops without leave events
	coordinator.HandleDisconnect(context.Background(), connID)

	// Then both rooms saw a departure and the table is empty
	req.ElementsMatch([]domain.RoomID{general, random}, left)
	req.Zero(coordinator.membership.OnlineUserCount())

	// And a second disconnect for the same connection does nothing
	coordinator.HandleDisconnect(context.Background(), connID)
}

func TestCoordinator_HandleDisconnect_Unbound_Connection(t *testing.T) {
	coordinator, _, _ := newCoordinator(t)
	connID := domain.NewConnID()
	coordinator.Connect(connID, &Sink{})

	// When a connection that never joined a room disconnects
	// Then no store call and no broadcast happens
	coordinator.HandleDisconnect(context.Background(), connID)
}
