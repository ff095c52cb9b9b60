package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"travel-account-service/internal/docstore/redisstore"
	"travel-account-service/internal/domain/user"
	apperrors "travel-account-service/pkg/errors"
)

// setupTestRepo creates a UserRepo over a miniredis-backed document store
func setupTestRepo(t *testing.T) *UserRepo {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})

	log := zaptest.NewLogger(t)
	docs := redisstore.New(client, "users", func() *user.User { return &user.User{} }, log)
	return NewUserRepo(docs, log)
}

func newCandidate(email, providerName, providerKey string) *user.User {
	u := &user.User{
		Email:    email,
		UserName: email,
	}
	u.AddLogin(user.ExternalLogin{ProviderName: providerName, ProviderKey: providerKey})
	return u
}

func TestUserRepo_Create_And_FindByID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	candidate := newCandidate("A@B.com", "amazon", "abc123")
	id, err := repo.Create(ctx, candidate)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "a@b.com", got.NormalizedEmail)
	assert.Equal(t, "a@b.com", got.NormalizedUserName)
	assert.Equal(t, []user.ExternalLogin{{ProviderName: "amazon", ProviderKey: "abc123"}}, got.Logins)
	assert.NotEmpty(t, got.ETag)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newCandidate("a@b.com", "amazon", "abc123"))
	require.NoError(t, err)

	// Same normalized email under a different login and casing.
	_, err = repo.Create(ctx, newCandidate("A@B.COM", "google", "xyz789"))
	require.Error(t, err)

	var dup *apperrors.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, apperrors.ResourceEmail, dup.Resource)
}

func TestUserRepo_Create_DuplicateExternalLogin(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newCandidate("a@b.com", "amazon", "abc123"))
	require.NoError(t, err)

	// Same (provider, key) under a different email.
	_, err = repo.Create(ctx, newCandidate("other@b.com", "amazon", "abc123"))
	require.Error(t, err)

	var dup *apperrors.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, apperrors.ResourceExternalLogin, dup.Resource)
}

func TestUserRepo_FindByEmail_CaseInsensitive(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newCandidate("Mixed@Case.com", "amazon", "abc123"))
	require.NoError(t, err)

	got, err := repo.FindByEmail(ctx, "mIXED@cASE.COM")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)

	got, err = repo.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserRepo_FindByEmail_Cancelled(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Create(context.Background(), newCandidate("a@b.com", "amazon", "abc123"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := repo.FindByEmail(ctx, "a@b.com")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, context.Canceled)

	var unavailable *apperrors.UnavailableError
	assert.False(t, errors.As(err, &unavailable))
}

func TestUserRepo_FindByLogin(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newCandidate("a@b.com", "amazon", "abc123"))
	require.NoError(t, err)

	got, err := repo.FindByLogin(ctx, "amazon", "abc123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)

	got, err = repo.FindByLogin(ctx, "amazon", "other")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserRepo_Update_RejectsStaleToken(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newCandidate("a@b.com", "amazon", "abc123"))
	require.NoError(t, err)

	// Two callers read the same concurrency token.
	first, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, id)
	require.NoError(t, err)

	first.GivenName = "First"
	require.NoError(t, repo.Update(ctx, first))

	second.GivenName = "Second"
	err = repo.Update(ctx, second)
	require.Error(t, err)
	assert.True(t, apperrors.IsConcurrency(err))

	// Only the winning write is visible.
	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "First", got.GivenName)
}

func TestUserRepo_Update_ResyncsNormalizedFields(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newCandidate("a@b.com", "amazon", "abc123"))
	require.NoError(t, err)

	u, err := repo.FindByID(ctx, id)
	require.NoError(t, err)

	u.UserName = "Traveller"
	require.NoError(t, repo.Update(ctx, u))

	got, err := repo.FindByName(ctx, "TRAVELLER")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
}

func TestUserRepo_Delete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newCandidate("a@b.com", "amazon", "abc123"))
	require.NoError(t, err)

	u, err := repo.FindByID(ctx, id)
	require.NoError(t, err)

	// Delete is by id, not conditioned on the token, so a stale copy still
	// deletes.
	u.SetConcurrencyToken("stale")
	removed, err := repo.Delete(ctx, u)
	require.NoError(t, err)
	assert.True(t, removed)

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	removed, err = repo.Delete(ctx, u)
	require.NoError(t, err)
	assert.False(t, removed)
}
