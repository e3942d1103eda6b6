//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-hub/domain"
	cherr "chat-hub/errors"
)

type IUserRepository interface {
	CreateUser(username string) (domain.User, error)
	FindUser(id domain.UserID) (domain.User, error)
	SetUserOnline(id domain.UserID, online bool) error
}

// UserRepository persists user records in BadgerDB under "user:{id}" with
// a "username:{name}" key enforcing display-name uniqueness. Both entries
// carry a TTL: expiry of stale accounts is a storage policy, not
// application code, and the rest of the system tolerates a user vanishing
// between operations.
type UserRepository struct {
	db  *badger.DB
	ttl time.Duration
}

func NewUserRepository(db *badger.DB, ttl time.Duration) UserRepository {
	return UserRepository{db: db, ttl: ttl}
}

type diskUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Online    bool      `json:"online"`
	CreatedAt time.Time `json:"created_at"`
}

func userKey(id domain.UserID) []byte { return []byte("user:" + id) }
func usernameKey(name string) []byte  { return []byte("username:" + name) }

// CreateUser persists a new user with a fresh UUID. The username key is
// checked and written in the same transaction, so two concurrent
// registrations of the same name cannot both succeed.
func (u UserRepository) CreateUser(username string) (domain.User, error) {
	user := domain.User{
		ID:        domain.UserID(uuid.NewString()),
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(fromUser(user))
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal user: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(usernameKey(username)); err == nil {
			return cherr.ErrUserExists
		}
		if err := txn.SetEntry(badger.NewEntry(usernameKey(username), []byte(user.ID)).WithTTL(u.ttl)); err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(userKey(user.ID), data).WithTTL(u.ttl))
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (u UserRepository) FindUser(id domain.UserID) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		found, err := getUser(txn, id)
		if err != nil {
			return err
		}
		user = found
		return nil
	})
	return user, err
}

// SetUserOnline flips the durable online flag inside one transaction,
// preserving the expiry the record was created with.
func (u UserRepository) SetUserOnline(id domain.UserID, online bool) error {
	return u.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return mapBadgerErr(err)
		}

		var du diskUser
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &du)
		}); err != nil {
			return err
		}
		du.Online = online

		data, err := json.Marshal(du)
		if err != nil {
			return err
		}
		entry := badger.NewEntry(userKey(id), data)
		// Keep the original expiry rather than restarting the 12h window.
		if exp := item.ExpiresAt(); exp > 0 {
			if left := time.Until(time.Unix(int64(exp), 0)); left > 0 {
				entry = entry.WithTTL(left)
			}
		}
		return txn.SetEntry(entry)
	})
}

// getUser reads one user record inside an open transaction. Shared with
// the room and message enrichment paths in this package.
func getUser(txn *badger.Txn, id domain.UserID) (domain.User, error) {
	item, err := txn.Get(userKey(id))
	if err != nil {
		return domain.User{}, mapBadgerErr(err)
	}
	var du diskUser
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &du)
	}); err != nil {
		return domain.User{}, err
	}
	return toUser(du), nil
}

func mapBadgerErr(err error) error {
	if err == badger.ErrKeyNotFound {
		return cherr.ErrNotFound
	}
	return err
}

func fromUser(user domain.User) diskUser {
	return diskUser{
		ID:        string(user.ID),
		Username:  user.Username,
		Online:    user.Online,
		CreatedAt: user.CreatedAt,
	}
}

func toUser(du diskUser) domain.User {
	return domain.User{
		ID:        domain.UserID(du.ID),
		Username:  du.Username,
		Online:    du.Online,
		CreatedAt: du.CreatedAt,
	}
}
