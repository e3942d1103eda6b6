//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-hub/domain"
	cherr "chat-hub/errors"
)

type IRoomRepository interface {
	CreateRoom(name string) (domain.Room, error)
	FindRoom(id domain.RoomID) (domain.Room, error)
	ListRooms() ([]domain.Room, error)
	AddMember(roomID domain.RoomID, userID domain.UserID) error
	RemoveMember(roomID domain.RoomID, userID domain.UserID) error
}

// RoomRepository persists rooms under "room:{id}" with a "roomname:{name}"
// uniqueness key. The active-user list stored with the room is the durable,
// lag-tolerant mirror of the in-memory membership table; it is updated with
// set semantics and never treated as the real-time source of truth.
type RoomRepository struct {
	db *badger.DB
}

func NewRoomRepository(db *badger.DB) RoomRepository {
	return RoomRepository{db: db}
}

type diskRoom struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ActiveUsers []string  `json:"active_users"`
	CreatedAt   time.Time `json:"created_at"`
}

func roomKey(id domain.RoomID) []byte { return []byte("room:" + id) }
func roomNameKey(name string) []byte  { return []byte("roomname:" + name) }

func (r RoomRepository) CreateRoom(name string) (domain.Room, error) {
	room := domain.Room{
		ID:        domain.RoomID(uuid.NewString()),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(fromRoom(room))
	if err != nil {
		return domain.Room{}, fmt.Errorf("marshal room: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(roomNameKey(name)); err == nil {
			return cherr.ErrRoomExists
		}
		if err := txn.Set(roomNameKey(name), []byte(room.ID)); err != nil {
			return err
		}
		return txn.Set(roomKey(room.ID), data)
	})
	if err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

// FindRoom returns the room with its raw member ids; usernames are not
// resolved at this level.
func (r RoomRepository) FindRoom(id domain.RoomID) (domain.Room, error) {
	var room domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		dr, err := getRoom(txn, id)
		if err != nil {
			return err
		}
		room = toRoom(dr)
		return nil
	})
	return room, err
}

// ListRooms scans the "room:" prefix and returns every room, member
// usernames resolved where the user record still exists.
func (r RoomRepository) ListRooms() ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("room:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var dr diskRoom
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &dr)
			}); err != nil {
				return err
			}
			rooms = append(rooms, enrichRoom(txn, dr))
		}
		return nil
	})
	return rooms, err
}

// AddMember inserts the user into the room's durable active-user list.
// Set semantics: inserting a present member is a no-op.
func (r RoomRepository) AddMember(roomID domain.RoomID, userID domain.UserID) error {
	return r.updateMembers(roomID, func(members []string) []string {
		if lo.Contains(members, string(userID)) {
			return members
		}
		return append(members, string(userID))
	})
}

// RemoveMember deletes the user from the durable list, no-op if absent.
func (r RoomRepository) RemoveMember(roomID domain.RoomID, userID domain.UserID) error {
	return r.updateMembers(roomID, func(members []string) []string {
		return lo.Without(members, string(userID))
	})
}

func (r RoomRepository) updateMembers(roomID domain.RoomID, apply func([]string) []string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		dr, err := getRoom(txn, roomID)
		if err != nil {
			return err
		}
		dr.ActiveUsers = apply(dr.ActiveUsers)

		data, err := json.Marshal(dr)
		if err != nil {
			return err
		}
		return txn.Set(roomKey(roomID), data)
	})
}

// findRoomWithMembers resolves the durable member list into enriched
// entries, skipping users whose records have expired.
func (r RoomRepository) findRoomWithMembers(id domain.RoomID) (domain.Room, error) {
	var room domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		dr, err := getRoom(txn, id)
		if err != nil {
			return err
		}
		room = enrichRoom(txn, dr)
		return nil
	})
	return room, err
}

func getRoom(txn *badger.Txn, id domain.RoomID) (diskRoom, error) {
	item, err := txn.Get(roomKey(id))
	if err != nil {
		return diskRoom{}, mapBadgerErr(err)
	}
	var dr diskRoom
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &dr)
	}); err != nil {
		return diskRoom{}, err
	}
	return dr, nil
}

func enrichRoom(txn *badger.Txn, dr diskRoom) domain.Room {
	room := toRoom(dr)
	room.ActiveUsers = make([]domain.Member, 0, len(dr.ActiveUsers))
	for _, id := range dr.ActiveUsers {
		member := domain.Member{ID: domain.UserID(id), Online: true}
		if user, err := getUser(txn, member.ID); err == nil {
			member.Username = user.Username
		}
		room.ActiveUsers = append(room.ActiveUsers, member)
	}
	return room
}

func fromRoom(room domain.Room) diskRoom {
	return diskRoom{
		ID:   string(room.ID),
		Name: room.Name,
		ActiveUsers: lo.Map(room.ActiveUsers, func(m domain.Member, _ int) string {
			return string(m.ID)
		}),
		CreatedAt: room.CreatedAt,
	}
}

func toRoom(dr diskRoom) domain.Room {
	return domain.Room{
		ID:   domain.RoomID(dr.ID),
		Name: dr.Name,
		ActiveUsers: lo.Map(dr.ActiveUsers, func(id string, _ int) domain.Member {
			return domain.Member{ID: domain.UserID(id)}
		}),
		CreatedAt: dr.CreatedAt,
	}
}
