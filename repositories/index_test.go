package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	database "github.com/mama165/sdk-go/database"
	"github.com/stretchr/testify/require"

	"chat-hub/domain"
)

func indexedMessage(roomID domain.RoomID, sender domain.UserID, content string) domain.Message {
	return domain.Message{
		ID:        uuid.New(),
		SenderID:  sender,
		RoomID:    roomID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

func TestMessageIndex_Search_Scoped_To_Room(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	index := NewMessageIndex(blugeWriter)

	// Given the same word spoken in two rooms
	inGeneral := indexedMessage("general", "alice", "the deployment failed again")
	req.NoError(index.Index(inGeneral))
	req.NoError(index.Index(indexedMessage("random", "bob", "deployment party tonight")))
	req.NoError(index.Index(indexedMessage("general", "bob", "lunch anyone")))

	// When searching one room
	hits, err := index.Search(context.Background(), "general", "deployment", 10)
	req.NoError(err)

	// Then only that room's message matches
	req.Len(hits, 1)
	req.Equal(inGeneral.ID.String(), hits[0].MessageID)
	req.Equal(domain.UserID("alice"), hits[0].SenderID)
	req.Equal("the deployment failed again", hits[0].Content)
}

func TestMessageIndex_Search_No_Match(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	index := NewMessageIndex(blugeWriter)
	req.NoError(index.Index(indexedMessage("general", "alice", "hello world")))

	hits, err := index.Search(context.Background(), "general", "nonexistent", 10)
	req.NoError(err)
	req.Empty(hits)
}

func TestMessageIndex_Search_Honors_Limit(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	index := NewMessageIndex(blugeWriter)
	for i := 0; i < 5; i++ {
		req.NoError(index.Index(indexedMessage("general", "alice", "release notes draft")))
	}

	hits, err := index.Search(context.Background(), "general", "release", 2)
	req.NoError(err)
	req.Len(hits, 2)
}
