package repositories

import (
	"context"
	"time"

	"github.com/blugelabs/bluge"

	"chat-hub/domain"
)

// MessageIndex maintains a bluge full-text index over message content,
// fed best-effort after each durable create. Search is scoped to one room.
type MessageIndex struct {
	writer *bluge.Writer
}

func NewMessageIndex(writer *bluge.Writer) *MessageIndex {
	return &MessageIndex{writer: writer}
}

type SearchHit struct {
	MessageID string
	SenderID  domain.UserID
	Content   string
	CreatedAt time.Time
}

func (x *MessageIndex) Index(msg domain.Message) error {
	doc := bluge.NewDocument(msg.ID.String()).
		AddField(bluge.NewKeywordField("room", string(msg.RoomID)).StoreValue()).
		AddField(bluge.NewKeywordField("sender", string(msg.SenderID)).StoreValue()).
		AddField(bluge.NewTextField("content", msg.Content).StoreValue()).
		AddField(bluge.NewKeywordField("created_at", msg.CreatedAt.Format(time.RFC3339Nano)).StoreValue())
	return x.writer.Update(doc.ID(), doc)
}

// Search runs a match query over message content restricted to the room,
// returning at most limit hits, best score first.
func (x *MessageIndex) Search(ctx context.Context, roomID domain.RoomID, terms string, limit int) ([]SearchHit, error) {
	reader, err := x.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("content")).
		AddMust(bluge.NewTermQuery(string(roomID)).SetField("room"))

	it, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	for {
		match, err := it.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		var hit SearchHit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "sender":
				hit.SenderID = domain.UserID(value)
			case "content":
				hit.Content = string(value)
			case "created_at":
				if at, err := time.Parse(time.RFC3339Nano, string(value)); err == nil {
					hit.CreatedAt = at
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
