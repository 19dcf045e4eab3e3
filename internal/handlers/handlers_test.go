package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/accountsvc/apiserver/internal/auth"
	"github.com/accountsvc/apiserver/internal/events"
	"github.com/accountsvc/apiserver/internal/handlers"
	"github.com/accountsvc/apiserver/internal/services"
	"github.com/accountsvc/apiserver/internal/store"
	"github.com/accountsvc/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memRepo is an in-memory UserRepository mirroring the uniqueness and
// not-found semantics of the Postgres-backed store.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]types.User
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[int64]types.User)}
}

func (r *memRepo) List(ctx context.Context) ([]types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]types.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	return users, nil
}

func (r *memRepo) GetByID(ctx context.Context, id int64) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return types.User{}, store.ErrDuplicateUsername
		}
	}
	r.nextID++
	user.ID = r.nextID
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *memRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	for id, existing := range r.users {
		if id != user.ID && existing.Username == user.Username {
			return types.User{}, store.ErrDuplicateUsername
		}
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
	return user, nil
}

func (r *memRepo) SetAvatarKey(ctx context.Context, id int64, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.AvatarKey = key
	r.users[id] = user
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type testEnv struct {
	router *chi.Mux
	repo   *memRepo
	tokens *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := newMemRepo()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenService("test-secret", time.Minute)
	publisher := events.NewPublisher(nil)

	userService := services.NewUserService(repo, hasher, publisher)
	identityService := services.NewIdentityService(repo, hasher, tokens, publisher)
	avatarService := services.NewAvatarService(repo, nil)

	router := chi.NewRouter()
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, identityService, avatarService)
	})

	return &testEnv{
		router: router,
		repo:   repo,
		tokens: tokens,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&value))
	return value
}

func registerPayload(username string) map[string]string {
	return map[string]string{
		"username":  username,
		"firstName": "A",
		"lastName":  "L",
		"password":  "secret",
	}
}

func bearer(token string) http.Header {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	return header
}
