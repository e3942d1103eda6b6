//go:generate go run go.uber.org/mock/mockgen -source=directory_service.go -destination=../mocks/mock_directory_service.go -package=mocks
package services

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"chat-hub/domain"
	"chat-hub/repositories"
)

var ErrValidation = fmt.Errorf("validation failed")

type IDirectoryService interface {
	Register(username string) (domain.User, error)
	CreateRoom(name string) (domain.Room, error)
	ListRooms() ([]domain.Room, error)
}

// DirectoryService owns the thin user/room CRUD surface: registration with
// a unique display name and the room directory with enriched member lists.
type DirectoryService struct {
	users    repositories.UserRepository
	rooms    repositories.RoomRepository
	validate *validator.Validate
}

func NewDirectoryService(users repositories.UserRepository, rooms repositories.RoomRepository) *DirectoryService {
	return &DirectoryService{
		users:    users,
		rooms:    rooms,
		validate: validator.New(),
	}
}

type registerInput struct {
	Username string `validate:"required,min=3"`
}

type createRoomInput struct {
	Name string `validate:"required"`
}

// Register creates a user with the given display name. Names shorter than
// three runes are rejected before touching the store.
func (s *DirectoryService) Register(username string) (domain.User, error) {
	if err := s.validate.Struct(registerInput{Username: username}); err != nil {
		return domain.User{}, fmt.Errorf("%w: username must be at least 3 characters long", ErrValidation)
	}
	return s.users.CreateUser(username)
}

func (s *DirectoryService) CreateRoom(name string) (domain.Room, error) {
	if err := s.validate.Struct(createRoomInput{Name: name}); err != nil {
		return domain.Room{}, fmt.Errorf("%w: room name is required", ErrValidation)
	}
	return s.rooms.CreateRoom(name)
}

func (s *DirectoryService) ListRooms() ([]domain.Room, error) {
	return s.rooms.ListRooms()
}
