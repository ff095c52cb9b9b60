// Package cached decorates a user repository with a cache-aside layer. Reads
// by id are served from the cache when possible; every write invalidates the
// cached entry so a later read cannot observe a stale concurrency token.
package cached

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"travel-account-service/internal/adapter/cache"
	domain "travel-account-service/internal/domain/user"
)

// CachedUserRepository implements user.Repository with caching support.
// It wraps a persistent repository and a cache implementation.
type CachedUserRepository struct {
	repo  domain.Repository
	cache cache.UserCache
	log   *zap.Logger
	group singleflight.Group
}

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(repo domain.Repository, cache cache.UserCache, log *zap.Logger) domain.Repository {
	return &CachedUserRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Create delegates to the persistent repository.
func (r *CachedUserRepository) Create(ctx context.Context, u *domain.User) (string, error) {
	return r.repo.Create(ctx, u)
}

// FindByID retrieves a user by ID using the Cache-Aside pattern.
func (r *CachedUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	// Try to get from cache first
	if r.cache != nil {
		cachedUser, err := r.cache.Get(ctx, id)
		if err != nil {
			r.log.Warn("cache get error, falling back to store", zap.String("id", id), zap.Error(err))
		} else if cachedUser != nil {
			r.log.Debug("user retrieved from cache", zap.String("id", id))
			return cachedUser, nil
		}
	}

	// Cache miss or cache disabled - use single-flight to prevent stampede
	key := fmt.Sprintf("user:%s", id)
	result, err, _ := r.group.Do(key, func() (any, error) {
		// Double-check cache in case another request populated it while we were waiting
		if r.cache != nil {
			cachedUser, err := r.cache.Get(ctx, id)
			if err == nil && cachedUser != nil {
				r.log.Debug("user retrieved from cache after single-flight wait", zap.String("id", id))
				return cachedUser, nil
			}
		}

		// Only one request hits the store
		u, err := r.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		// Store in cache for future requests; misses are not cached.
		if r.cache != nil && u != nil {
			if err := r.cache.Set(ctx, u); err != nil {
				r.log.Warn("failed to cache user", zap.String("id", id), zap.Error(err))
			}
		}

		return u, nil
	})

	if err != nil {
		return nil, err
	}

	return result.(*domain.User), nil
}

// FindByName delegates to the persistent repository.
func (r *CachedUserRepository) FindByName(ctx context.Context, userName string) (*domain.User, error) {
	return r.repo.FindByName(ctx, userName)
}

// FindByEmail delegates to the persistent repository.
func (r *CachedUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.repo.FindByEmail(ctx, email)
}

// FindByLogin delegates to the persistent repository.
func (r *CachedUserRepository) FindByLogin(ctx context.Context, providerName, providerKey string) (*domain.User, error) {
	return r.repo.FindByLogin(ctx, providerName, providerKey)
}

// Update delegates to the persistent repository and invalidates the cached
// entry on success so later reads pick up the fresh concurrency token.
func (r *CachedUserRepository) Update(ctx context.Context, u *domain.User) error {
	if err := r.repo.Update(ctx, u); err != nil {
		return err
	}

	if r.cache != nil {
		if err := r.cache.Delete(ctx, u.ID); err != nil {
			r.log.Warn("failed to invalidate cache after update", zap.String("id", u.ID), zap.Error(err))
		}
	}
	return nil
}

// Delete delegates to the persistent repository and invalidates the cached
// entry. Deletion must be observable as a definite not-found on the next
// lookup, so invalidation happens even when nothing was removed.
func (r *CachedUserRepository) Delete(ctx context.Context, u *domain.User) (bool, error) {
	removed, err := r.repo.Delete(ctx, u)
	if err != nil {
		return removed, err
	}

	if r.cache != nil {
		if err := r.cache.Delete(ctx, u.ID); err != nil {
			r.log.Warn("failed to invalidate cache after delete", zap.String("id", u.ID), zap.Error(err))
		}
	}
	return removed, nil
}
