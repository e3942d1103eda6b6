//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-hub/domain"
)

type IMessageRepository interface {
	CreateMessage(senderID domain.UserID, roomID domain.RoomID, text string) (domain.Message, error)
	FindMessage(id string) (domain.Message, error)
	GetMessages(roomID domain.RoomID, cursor *string) ([]domain.Message, *string, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type diskMessage struct {
	ID        string    `json:"id"`
	Room      string    `json:"room"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// messageKey is formatted as "msg:{room_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using the UUID as a collision disconnector if
//     two messages land on the same nanosecond.
func messageKey(roomID domain.RoomID, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", roomID, at.UnixNano(), id))
}

func messageIDKey(id string) []byte { return []byte("msgid:" + id) }

// CreateMessage persists one message and a "msgid:{uuid}" pointer to its
// primary key, so the fanout can re-read by id alone.
func (m MessageRepository) CreateMessage(senderID domain.UserID, roomID domain.RoomID, text string) (domain.Message, error) {
	msg := domain.Message{
		ID:        uuid.New(),
		SenderID:  senderID,
		RoomID:    roomID,
		Content:   text,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(fromMessage(msg))
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal message: %w", err)
	}

	key := messageKey(roomID, msg.CreatedAt, msg.ID)
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(messageIDKey(msg.ID.String()), key)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

func (m MessageRepository) FindMessage(id string) (domain.Message, error) {
	var msg domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		pointer, err := txn.Get(messageIDKey(id))
		if err != nil {
			return mapBadgerErr(err)
		}
		var key []byte
		if err := pointer.Value(func(val []byte) error {
			key = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}

		item, err := txn.Get(key)
		if err != nil {
			return mapBadgerErr(err)
		}
		var dm diskMessage
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &dm)
		}); err != nil {
			return err
		}
		msg, err = toMessage(dm)
		return err
	})
	return msg, err
}

// GetMessages retrieves a room's history newest-first using a reverse
// prefix scan. Thanks to the padded timestamp in the key, messages are
// naturally sorted by time. The returned cursor resumes the scan after
// the last delivered message; collection stops at limitMessages when set.
func (m MessageRepository) GetMessages(roomID domain.RoomID, cursor *string) ([]domain.Message, *string, error) {
	var messages []domain.Message
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", roomID)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible key, then walk backwards.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(messages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[prefixLen:])

			var dm diskMessage
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &dm)
			}); err != nil {
				return err
			}
			msg, err := toMessage(dm)
			if err != nil {
				return err
			}
			messages = append(messages, msg)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return messages, &lastKey, nil
}

func fromMessage(msg domain.Message) diskMessage {
	return diskMessage{
		ID:        msg.ID.String(),
		Room:      string(msg.RoomID),
		Author:    string(msg.SenderID),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

func toMessage(dm diskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(dm.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        parsedID,
		SenderID:  domain.UserID(dm.Author),
		RoomID:    domain.RoomID(dm.Room),
		Content:   dm.Content,
		CreatedAt: dm.CreatedAt,
	}, nil
}
