package services

import (
	"testing"
	"time"

	database "github.com/mama165/sdk-go/database"
	"github.com/stretchr/testify/require"

	cherr "chat-hub/errors"
	"chat-hub/repositories"
)

func newDirectoryService(t *testing.T) *DirectoryService {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	t.Cleanup(func() { database.CleanupDB(badgerDB, blugeWriter) })

	users := repositories.NewUserRepository(badgerDB, 12*time.Hour)
	rooms := repositories.NewRoomRepository(badgerDB)
	return NewDirectoryService(users, rooms)
}

func TestDirectoryService_Register(t *testing.T) {
	req := require.New(t)
	svc := newDirectoryService(t)

	// When a valid name registers
	user, err := svc.Register("Alice")
	req.NoError(err)
	req.Equal("Alice", user.Username)
	req.NotEmpty(user.ID)
}

func TestDirectoryService_Register_Short_Name(t *testing.T) {
	req := require.New(t)
	svc := newDirectoryService(t)

	// When the name is under three characters
	_, err := svc.Register("Al")

	// Then validation refuses it before touching the store
	req.ErrorIs(err, ErrValidation)
}

func TestDirectoryService_Register_Taken_Name(t *testing.T) {
	req := require.New(t)
	svc := newDirectoryService(t)

	_, err := svc.Register("Alice")
	req.NoError(err)

	_, err = svc.Register("Alice")
	req.ErrorIs(err, cherr.ErrUserExists)
}

func TestDirectoryService_CreateRoom(t *testing.T) {
	req := require.New(t)
	svc := newDirectoryService(t)

	room, err := svc.CreateRoom("general")
	req.NoError(err)
	req.Equal("general", room.Name)

	// Empty names never reach the store
	_, err = svc.CreateRoom("")
	req.ErrorIs(err, ErrValidation)

	// Duplicate names are refused by the store
	_, err = svc.CreateRoom("general")
	req.ErrorIs(err, cherr.ErrRoomExists)
}

func TestDirectoryService_ListRooms(t *testing.T) {
	req := require.New(t)
	svc := newDirectoryService(t)

	_, err := svc.CreateRoom("general")
	req.NoError(err)
	_, err = svc.CreateRoom("random")
	req.NoError(err)

	rooms, err := svc.ListRooms()
	req.NoError(err)
	req.Len(rooms, 2)
}
