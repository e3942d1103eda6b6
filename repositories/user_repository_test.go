package repositories

import (
	"testing"
	"time"

	database "github.com/mama165/sdk-go/database"
	"github.com/stretchr/testify/require"

	"chat-hub/domain"
	cherr "chat-hub/errors"
)

func TestUserRepository_Create_And_Find(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	repo := NewUserRepository(badgerDB, 12*time.Hour)

	// When a user registers
	user, err := repo.CreateUser("Alice")
	req.NoError(err)
	req.NotEmpty(user.ID)

	// Then the record is retrievable, offline by default
	fetched, err := repo.FindUser(user.ID)
	req.NoError(err)
	req.Equal("Alice", fetched.Username)
	req.False(fetched.Online)
}

func TestUserRepository_Duplicate_Username(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	repo := NewUserRepository(badgerDB, 12*time.Hour)

	// Given a registered name
	_, err = repo.CreateUser("Alice")
	req.NoError(err)

	// When a second user claims the same name
	_, err = repo.CreateUser("Alice")

	// Then the registration is refused
	req.ErrorIs(err, cherr.ErrUserExists)
}

func TestUserRepository_Find_Unknown_User(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	repo := NewUserRepository(badgerDB, 12*time.Hour)

	_, err = repo.FindUser(domain.UserID("ghost"))
	req.ErrorIs(err, cherr.ErrNotFound)
}

func TestUserRepository_SetUserOnline(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	repo := NewUserRepository(badgerDB, 12*time.Hour)
	user, err := repo.CreateUser("Alice")
	req.NoError(err)

	// When the flag flips on and back off
	req.NoError(repo.SetUserOnline(user.ID, true))
	fetched, err := repo.FindUser(user.ID)
	req.NoError(err)
	req.True(fetched.Online)

	req.NoError(repo.SetUserOnline(user.ID, false))
	fetched, err = repo.FindUser(user.ID)
	req.NoError(err)
	req.False(fetched.Online)

	// And flipping an unknown user reports not found
	req.ErrorIs(repo.SetUserOnline(domain.UserID("ghost"), true), cherr.ErrNotFound)
}

func TestUserRepository_Records_Expire(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	// Given a repository with a one second record lifetime
	repo := NewUserRepository(badgerDB, 1*time.Second)
	user, err := repo.CreateUser("Ephemeral")
	req.NoError(err)

	// When the lifetime elapses
	time.Sleep(1500 * time.Millisecond)

	// Then both the record and the name reservation are gone
	_, err = repo.FindUser(user.ID)
	req.ErrorIs(err, cherr.ErrNotFound)

	_, err = repo.CreateUser("Ephemeral")
	req.NoError(err)
}
