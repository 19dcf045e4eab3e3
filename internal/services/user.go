package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/accountsvc/apiserver/internal/auth"
	"github.com/accountsvc/apiserver/internal/events"
	"github.com/accountsvc/apiserver/types"
)

// Patch validation failures.
var (
	// ErrForbiddenField is returned when a patch targets a field that must
	// never be set from untrusted input.
	ErrForbiddenField = errors.New("field cannot be patched")
	// ErrUnknownField is returned when a patch targets a field that does
	// not exist on the user record.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidFieldValue is returned when a patch value has the wrong
	// type or an empty value where one is required.
	ErrInvalidFieldValue = errors.New("invalid field value")
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context) ([]types.User, error)
	GetByID(ctx context.Context, id int64) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	SetAvatarKey(ctx context.Context, id int64, key string) error
	Delete(ctx context.Context, id int64) error
}

// UserService encapsulates user CRUD use-cases. Every create and patch path
// runs plaintext passwords through the hasher; nothing downstream of this
// service ever sees or stores a plaintext password.
type UserService struct {
	repo   UserRepository
	hasher *auth.PasswordHasher
	events *events.Publisher
}

func NewUserService(repo UserRepository, hasher *auth.PasswordHasher, events *events.Publisher) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		events: events,
	}
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id int64) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Create stores a new user, hashing the given plaintext password. The
// PasswordHash field of the input is ignored.
func (s *UserService) Create(ctx context.Context, user types.User, password string) (types.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return types.User{}, err
	}
	s.events.UserCreated(ctx, created)
	return created, nil
}

// Patch applies a partial field map onto an existing user. Only username,
// firstName, lastName and password may be patched; id and the stored hash are
// rejected outright, anything else is unknown. The whole patch is validated
// before any field is applied.
func (s *UserService) Patch(ctx context.Context, id int64, fields map[string]any) (types.User, error) {
	if err := validatePatch(fields); err != nil {
		return types.User{}, err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	for name, value := range fields {
		text := value.(string)
		switch name {
		case "username":
			user.Username = text
		case "firstName":
			user.FirstName = text
		case "lastName":
			user.LastName = text
		case "password":
			hash, err := s.hasher.Hash(text)
			if err != nil {
				return types.User{}, fmt.Errorf("hash password: %w", err)
			}
			user.PasswordHash = hash
		}
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return types.User{}, err
	}
	s.events.UserUpdated(ctx, updated)
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.events.UserDeleted(ctx, user)
	return nil
}

func validatePatch(fields map[string]any) error {
	for name, value := range fields {
		switch name {
		case "id", "passwordHash", "password_hash":
			return fmt.Errorf("%w: %s", ErrForbiddenField, name)
		case "username", "firstName", "lastName", "password":
			text, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w: %s must be a string", ErrInvalidFieldValue, name)
			}
			if (name == "username" || name == "password") && text == "" {
				return fmt.Errorf("%w: %s cannot be empty", ErrInvalidFieldValue, name)
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
	}
	return nil
}
