//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"errors"

	"chat-hub/contract"
	"chat-hub/domain"
	cherr "chat-hub/errors"
	"chat-hub/repositories"
	"chat-hub/runtime"
)

type IChatService interface {
	Connect(connID domain.ConnID, sink contract.EventSink)
	JoinRoom(ctx context.Context, connID domain.ConnID, roomID domain.RoomID, userID domain.UserID)
	LeaveRoom(ctx context.Context, connID domain.ConnID, roomID domain.RoomID, userID domain.UserID)
	Disconnect(ctx context.Context, connID domain.ConnID)
	SendMessage(ctx context.Context, userID domain.UserID, roomID domain.RoomID, text string)
	History(roomID domain.RoomID, cursor *string) ([]domain.Message, *string, error)
	Search(ctx context.Context, roomID domain.RoomID, terms string, limit int) ([]repositories.SearchHit, error)
}

// ChatService is the facade the transport and HTTP layers talk to; it
// delegates presence to the coordinator and message handling to the fanout.
type ChatService struct {
	coordinator *runtime.Coordinator
	fanout      *runtime.Fanout
	messages    repositories.MessageRepository
	users       repositories.UserRepository
	index       *repositories.MessageIndex
}

func NewChatService(coordinator *runtime.Coordinator, fanout *runtime.Fanout,
	messages repositories.MessageRepository, users repositories.UserRepository,
	index *repositories.MessageIndex) *ChatService {
	return &ChatService{
		coordinator: coordinator,
		fanout:      fanout,
		messages:    messages,
		users:       users,
		index:       index,
	}
}

func (s *ChatService) Connect(connID domain.ConnID, sink contract.EventSink) {
	s.coordinator.Connect(connID, sink)
}

func (s *ChatService) JoinRoom(ctx context.Context, connID domain.ConnID, roomID domain.RoomID, userID domain.UserID) {
	s.coordinator.JoinRoom(ctx, connID, roomID, userID)
}

func (s *ChatService) LeaveRoom(ctx context.Context, connID domain.ConnID, roomID domain.RoomID, userID domain.UserID) {
	s.coordinator.LeaveRoom(ctx, connID, roomID, userID)
}

func (s *ChatService) Disconnect(ctx context.Context, connID domain.ConnID) {
	s.coordinator.HandleDisconnect(ctx, connID)
}

func (s *ChatService) SendMessage(ctx context.Context, userID domain.UserID, roomID domain.RoomID, text string) {
	s.fanout.SendMessage(ctx, userID, roomID, text)
}

// History pages through a room's messages newest-first, resolving sender
// names where the user record still exists.
func (s *ChatService) History(roomID domain.RoomID, cursor *string) ([]domain.Message, *string, error) {
	messages, next, err := s.messages.GetMessages(roomID, cursor)
	if err != nil {
		return nil, nil, err
	}

	names := make(map[domain.UserID]string)
	for i, msg := range messages {
		name, seen := names[msg.SenderID]
		if !seen {
			user, err := s.users.FindUser(msg.SenderID)
			switch {
			case err == nil:
				name = user.Username
			case errors.Is(err, cherr.ErrNotFound):
				name = ""
			default:
				return nil, nil, err
			}
			names[msg.SenderID] = name
		}
		messages[i].SenderName = name
	}
	return messages, next, nil
}

func (s *ChatService) Search(ctx context.Context, roomID domain.RoomID, terms string, limit int) ([]repositories.SearchHit, error) {
	return s.index.Search(ctx, roomID, terms, limit)
}
