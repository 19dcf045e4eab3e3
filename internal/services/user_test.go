package services_test

import (
	"context"
	"testing"

	"github.com/accountsvc/apiserver/internal/auth"
	"github.com/accountsvc/apiserver/internal/events"
	"github.com/accountsvc/apiserver/internal/services"
	"github.com/accountsvc/apiserver/internal/store"
	"github.com/accountsvc/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(repo services.UserRepository) (*services.UserService, *auth.PasswordHasher) {
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	return services.NewUserService(repo, hasher, events.NewPublisher(nil)), hasher
}

func createTestUser(t *testing.T, svc *services.UserService, username string) types.User {
	t.Helper()
	user, err := svc.Create(context.Background(), types.User{
		Username:  username,
		FirstName: "A",
		LastName:  "L",
	}, "secret")
	require.NoError(t, err)
	return user
}

func TestUserServiceCreateHashesPassword(t *testing.T) {
	repo := newMemRepo()
	svc, hasher := newUserService(repo)

	user := createTestUser(t, svc, "alice")

	assert.NotEqual(t, "secret", user.PasswordHash)
	assert.True(t, hasher.Verify("secret", user.PasswordHash))
}

func TestUserServiceCreateDuplicate(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newUserService(repo)

	createTestUser(t, svc, "alice")
	_, err := svc.Create(context.Background(), types.User{
		Username:  "alice",
		FirstName: "B",
		LastName:  "M",
	}, "other")
	assert.ErrorIs(t, err, store.ErrDuplicateUsername)
}

func TestUserServicePatchRejectsForbiddenFields(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newUserService(repo)
	user := createTestUser(t, svc, "alice")

	for _, field := range []string{"id", "passwordHash", "password_hash"} {
		_, err := svc.Patch(context.Background(), user.ID, map[string]any{field: "hijacked"})
		assert.ErrorIs(t, err, services.ErrForbiddenField, "field %q", field)
	}

	// Record must be untouched after rejected patches.
	stored, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.PasswordHash, stored.PasswordHash)
}

func TestUserServicePatchRejectsUnknownField(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newUserService(repo)
	user := createTestUser(t, svc, "alice")

	_, err := svc.Patch(context.Background(), user.ID, map[string]any{"role": "admin"})
	assert.ErrorIs(t, err, services.ErrUnknownField)
}

func TestUserServicePatchRejectsNonStringValue(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newUserService(repo)
	user := createTestUser(t, svc, "alice")

	_, err := svc.Patch(context.Background(), user.ID, map[string]any{"firstName": 42})
	assert.ErrorIs(t, err, services.ErrInvalidFieldValue)

	_, err = svc.Patch(context.Background(), user.ID, map[string]any{"username": ""})
	assert.ErrorIs(t, err, services.ErrInvalidFieldValue)
}

func TestUserServicePatchUpdatesOnlyGivenFields(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newUserService(repo)
	user := createTestUser(t, svc, "alice")

	updated, err := svc.Patch(context.Background(), user.ID, map[string]any{"firstName": "X"})
	require.NoError(t, err)

	assert.Equal(t, "X", updated.FirstName)
	assert.Equal(t, user.Username, updated.Username)
	assert.Equal(t, user.LastName, updated.LastName)
	assert.Equal(t, user.PasswordHash, updated.PasswordHash)
}

func TestUserServicePatchRehashesPassword(t *testing.T) {
	repo := newMemRepo()
	svc, hasher := newUserService(repo)
	user := createTestUser(t, svc, "alice")

	updated, err := svc.Patch(context.Background(), user.ID, map[string]any{"password": "changed"})
	require.NoError(t, err)

	assert.NotEqual(t, "changed", updated.PasswordHash)
	assert.NotEqual(t, user.PasswordHash, updated.PasswordHash)
	assert.True(t, hasher.Verify("changed", updated.PasswordHash))
}

func TestUserServicePatchDuplicateUsername(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newUserService(repo)
	createTestUser(t, svc, "alice")
	bob := createTestUser(t, svc, "bob")

	_, err := svc.Patch(context.Background(), bob.ID, map[string]any{"username": "alice"})
	assert.ErrorIs(t, err, store.ErrDuplicateUsername)
}

func TestUserServicePatchMissingUser(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newUserService(repo)

	_, err := svc.Patch(context.Background(), 42, map[string]any{"firstName": "X"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserServiceDelete(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newUserService(repo)
	user := createTestUser(t, svc, "alice")

	require.NoError(t, svc.Delete(context.Background(), user.ID))

	_, err := svc.Get(context.Background(), user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), user.ID), store.ErrNotFound)
}
