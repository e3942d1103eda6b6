package repositories

import (
	"errors"

	"chat-hub/contract"
	"chat-hub/domain"
	cherr "chat-hub/errors"
)

// Store composes the entity repositories into the single persistence
// collaborator the core consumes. Enrichment that spans entities (sender
// names on messages, usernames on room member lists) happens here.
type Store struct {
	Users    UserRepository
	Rooms    RoomRepository
	Messages MessageRepository
}

func NewStore(users UserRepository, rooms RoomRepository, messages MessageRepository) Store {
	return Store{Users: users, Rooms: rooms, Messages: messages}
}

var _ contract.Store = Store{}

func (s Store) FindUser(id domain.UserID) (domain.User, error) {
	return s.Users.FindUser(id)
}

func (s Store) SetUserOnline(id domain.UserID, online bool) error {
	return s.Users.SetUserOnline(id, online)
}

func (s Store) AddRoomMember(roomID domain.RoomID, userID domain.UserID) error {
	return s.Rooms.AddMember(roomID, userID)
}

func (s Store) RemoveRoomMember(roomID domain.RoomID, userID domain.UserID) error {
	return s.Rooms.RemoveMember(roomID, userID)
}

func (s Store) CreateMessage(senderID domain.UserID, roomID domain.RoomID, text string) (domain.Message, error) {
	return s.Messages.CreateMessage(senderID, roomID, text)
}

// FindMessageEnriched re-reads a persisted message and resolves the sender
// username. An expired sender record leaves the name empty rather than
// failing the read.
func (s Store) FindMessageEnriched(id string) (domain.Message, error) {
	msg, err := s.Messages.FindMessage(id)
	if err != nil {
		return domain.Message{}, err
	}
	user, err := s.Users.FindUser(msg.SenderID)
	if err != nil {
		if errors.Is(err, cherr.ErrNotFound) {
			return msg, nil
		}
		return domain.Message{}, err
	}
	msg.SenderName = user.Username
	return msg, nil
}

func (s Store) FindRoomWithMembers(roomID domain.RoomID) (domain.Room, error) {
	return s.Rooms.findRoomWithMembers(roomID)
}
