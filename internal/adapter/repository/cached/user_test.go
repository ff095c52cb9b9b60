package cached

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"travel-account-service/internal/adapter/cache"
	domain "travel-account-service/internal/domain/user"
)

// MockRepository is a mock implementation of the user.Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u *domain.User) (string, error) {
	args := m.Called(ctx, u)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) FindByName(ctx context.Context, userName string) (*domain.User, error) {
	args := m.Called(ctx, userName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) FindByLogin(ctx context.Context, providerName, providerKey string) (*domain.User, error) {
	args := m.Called(ctx, providerName, providerKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, u *domain.User) (bool, error) {
	args := m.Called(ctx, u)
	return args.Bool(0), args.Error(1)
}

// setupCachedRepo creates a cached repository over a mock store and a
// miniredis-backed cache
func setupCachedRepo(t *testing.T) (domain.Repository, *MockRepository, cache.UserCache) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})

	log := zaptest.NewLogger(t)
	userCache := cache.NewRedisUserCache(client, 5*time.Minute, log)
	mockRepo := new(MockRepository)
	return NewCachedUserRepository(mockRepo, userCache, log), mockRepo, userCache
}

func TestCachedRepository_FindByID_PopulatesCache(t *testing.T) {
	repo, mockRepo, userCache := setupCachedRepo(t)
	ctx := context.Background()

	u := &domain.User{ID: "user-1", Email: "a@b.com", ETag: "etag-1"}
	mockRepo.On("FindByID", ctx, "user-1").Return(u, nil).Once()

	// First read hits the store.
	got, err := repo.FindByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	// Second read is served from cache; the mock would fail on a second call.
	got, err = repo.FindByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.ETag, got.ETag)

	cached, err := userCache.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.NotNil(t, cached)

	mockRepo.AssertExpectations(t)
}

func TestCachedRepository_FindByID_MissNotCached(t *testing.T) {
	repo, mockRepo, userCache := setupCachedRepo(t)
	ctx := context.Background()

	mockRepo.On("FindByID", ctx, "ghost").Return(nil, nil).Twice()

	got, err := repo.FindByID(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)

	cached, err := userCache.Get(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, cached)

	// A miss goes back to the store every time.
	_, err = repo.FindByID(ctx, "ghost")
	require.NoError(t, err)

	mockRepo.AssertExpectations(t)
}

func TestCachedRepository_Update_InvalidatesCache(t *testing.T) {
	repo, mockRepo, userCache := setupCachedRepo(t)
	ctx := context.Background()

	u := &domain.User{ID: "user-1", Email: "a@b.com", ETag: "etag-1"}
	require.NoError(t, userCache.Set(ctx, u))

	mockRepo.On("Update", ctx, u).Return(nil)

	require.NoError(t, repo.Update(ctx, u))

	cached, err := userCache.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, cached)

	mockRepo.AssertExpectations(t)
}

func TestCachedRepository_Delete_InvalidatesCache(t *testing.T) {
	repo, mockRepo, userCache := setupCachedRepo(t)
	ctx := context.Background()

	u := &domain.User{ID: "user-1", Email: "a@b.com", ETag: "etag-1"}
	require.NoError(t, userCache.Set(ctx, u))

	mockRepo.On("Delete", ctx, u).Return(true, nil)

	removed, err := repo.Delete(ctx, u)
	require.NoError(t, err)
	assert.True(t, removed)

	cached, err := userCache.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, cached)

	mockRepo.AssertExpectations(t)
}
