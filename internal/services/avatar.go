package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/accountsvc/apiserver/internal/storage"
	"github.com/accountsvc/apiserver/internal/store"
)

// ErrStorageUnavailable is returned when no object storage backend is
// configured.
var ErrStorageUnavailable = errors.New("object storage is not configured")

// AvatarService stores user avatars in object storage.
type AvatarService struct {
	repo    UserRepository
	storage *storage.Storage
}

// NewAvatarService constructs an AvatarService. The storage argument may be
// nil when no backend is configured; every operation then fails with
// ErrStorageUnavailable.
func NewAvatarService(repo UserRepository, storage *storage.Storage) *AvatarService {
	return &AvatarService{
		repo:    repo,
		storage: storage,
	}
}

// Upload stores the avatar for the given user and records its key.
func (s *AvatarService) Upload(ctx context.Context, userID int64, r io.Reader, size int64, contentType string) error {
	if s.storage == nil {
		return ErrStorageUnavailable
	}
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return err
	}

	key := avatarKey(userID)
	if err := s.storage.Put(ctx, key, r, size, contentType); err != nil {
		return err
	}
	return s.repo.SetAvatarKey(ctx, userID, key)
}

// Open returns a reader for the user's avatar. Users without an avatar yield
// store.ErrNotFound.
func (s *AvatarService) Open(ctx context.Context, userID int64) (io.ReadCloser, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.AvatarKey == "" {
		return nil, store.ErrNotFound
	}

	reader, err := s.storage.Get(ctx, user.AvatarKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return reader, nil
}

// Remove deletes the user's avatar object and clears its key.
func (s *AvatarService) Remove(ctx context.Context, userID int64) error {
	if s.storage == nil {
		return ErrStorageUnavailable
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.AvatarKey == "" {
		return store.ErrNotFound
	}

	if err := s.storage.Delete(ctx, user.AvatarKey); err != nil {
		return err
	}
	return s.repo.SetAvatarKey(ctx, userID, "")
}

func avatarKey(userID int64) string {
	return fmt.Sprintf("avatars/%d", userID)
}
