package runtime

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/abadojack/whatlanggo"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	cherr "chat-hub/errors"
)

// Moderator masks forbidden words in a message, reporting which were found.
type Moderator interface {
	Censor(text string) (string, []string)
}

// Indexer receives every persisted message for full-text search. Indexing
// is best effort and never blocks delivery.
type Indexer interface {
	Index(msg domain.Message) error
}

// Fanout accepts inbound chat messages, persists them and broadcasts the
// enriched record to every connection subscribed to the room.
//
// Delivery order per room is the order in which durable creates complete.
// A mutex keyed by room id is held across create and broadcast to make
// that order observable; unrelated rooms never share a lock, so a hanging
// store call stalls only the room that issued it.
type Fanout struct {
	store     contract.Store
	broadcast contract.Broadcaster
	moderator Moderator
	index     Indexer
	log       *slog.Logger

	mu        sync.Mutex
	roomLocks map[domain.RoomID]*sync.Mutex
}

func NewFanout(store contract.Store, broadcast contract.Broadcaster,
	moderator Moderator, index Indexer, log *slog.Logger) *Fanout {
	return &Fanout{
		store:     store,
		broadcast: broadcast,
		moderator: moderator,
		index:     index,
		log:       log.With("component", "fanout"),
		roomLocks: make(map[domain.RoomID]*sync.Mutex),
	}
}

// SendMessage persists and fans out one chat message. Empty or
// whitespace-only text is silently dropped: no record, no broadcast,
// no error. This mirrors client-side validation on purpose.
func (f *Fanout) SendMessage(ctx context.Context, userID domain.UserID, roomID domain.RoomID, text string) {
	log := f.log.With("room_id", roomID, "user_id", userID)

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		log.Debug("Dropping empty message")
		return
	}

	content := trimmed
	if f.moderator != nil {
		censored, found := f.moderator.Censor(trimmed)
		if len(found) > 0 {
			lang := whatlanggo.Detect(trimmed)
			log.Warn("Censored message content",
				"words", len(found), "lang", lang.Lang.Iso6391())
			content = censored
		}
	}

	lock := f.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	msg, err := f.store.CreateMessage(userID, roomID, content)
	if err != nil {
		log.Error("Failed to persist message, abandoning send", "error", err)
		return
	}

	enriched, err := f.store.FindMessageEnriched(msg.ID.String())
	switch {
	case err == nil:
		msg = enriched
	case errors.Is(err, cherr.ErrNotFound):
		log.Warn("Message read-back missed, broadcasting without sender name")
	default:
		log.Error("Message read-back failed", "error", err)
	}

	if f.index != nil {
		if err := f.index.Index(msg); err != nil {
			log.Warn("Failed to index message", "error", err)
		}
	}

	f.broadcast.Broadcast(ctx, roomID, event.NewMessage{
		ID:        msg.ID.String(),
		Sender:    event.Sender{ID: msg.SenderID, Username: msg.SenderName},
		Room:      roomID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	})
}

func (f *Fanout) roomLock(roomID domain.RoomID) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	lock, ok := f.roomLocks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		f.roomLocks[roomID] = lock
	}
	return lock
}
