package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/accountsvc/apiserver/internal/auth"
	"github.com/accountsvc/apiserver/internal/events"
	"github.com/accountsvc/apiserver/internal/store"
	"github.com/accountsvc/apiserver/types"
)

// ErrInvalidCredentials is returned for both an unknown username and a wrong
// password, so callers cannot distinguish the two and enumerate usernames.
var ErrInvalidCredentials = errors.New("invalid credentials")

// IdentityService orchestrates registration, login and token-based identity
// lookup on top of the hasher, the repository and the token service.
type IdentityService struct {
	repo   UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenService
	events *events.Publisher
}

func NewIdentityService(repo UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService, events *events.Publisher) *IdentityService {
	return &IdentityService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		events: events,
	}
}

// Register creates a new account. The stored record holds only the hash of
// the password, never the plaintext.
func (s *IdentityService) Register(ctx context.Context, username, firstName, lastName, password string) (types.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, types.User{
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
	})
	if err != nil {
		return types.User{}, err
	}
	s.events.UserCreated(ctx, created)
	return created, nil
}

// Login verifies the credentials and issues a token bound to the username.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *IdentityService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(user.Username)
}

// Lookup verifies the token and resolves the asserted identity to a live
// user, returning the username. A token for a since-deleted user fails with
// store.ErrNotFound rather than producing a stale identity.
func (s *IdentityService) Lookup(ctx context.Context, token string) (string, error) {
	identity, err := s.tokens.Verify(token)
	if err != nil {
		return "", err
	}

	user, err := s.repo.GetByUsername(ctx, identity)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}
