// Package docstore adapts the user.Repository interface onto the generic
// document store contract, layering the uniqueness and concurrency policy the
// aggregate requires on top of raw document CRUD.
package docstore

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"travel-account-service/internal/domain/user"
	store "travel-account-service/internal/docstore"
	apperrors "travel-account-service/pkg/errors"
)

// UserRepo implements the user.Repository interface over a document store.
type UserRepo struct {
	docs store.Store[*user.User] // document store collection holding users
	log  *zap.Logger             // structured logger for persistence operations
}

// NewUserRepo creates a new instance of UserRepo.
func NewUserRepo(docs store.Store[*user.User], log *zap.Logger) *UserRepo {
	return &UserRepo{docs: docs, log: log}
}

// Create inserts a new user after checking that neither the normalized email
// nor any of the candidate's external logins is already held by an existing
// user. The pre-checks are an optimization for a clear error message; the
// store's conditional write remains the correctness boundary under races.
func (r *UserRepo) Create(ctx context.Context, u *user.User) (string, error) {
	if u == nil {
		return "", errors.New("user cannot be nil")
	}

	u.Normalize()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	existing, err := r.FindByEmail(ctx, u.Email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		r.log.Warn("email already registered", zap.String("email_normalized", u.NormalizedEmail), zap.String("existing_id", existing.ID))
		return "", apperrors.NewDuplicateEmailError(u.Email)
	}

	for _, login := range u.Logins {
		holder, err := r.FindByLogin(ctx, login.ProviderName, login.ProviderKey)
		if err != nil {
			return "", err
		}
		if holder != nil {
			r.log.Warn("external login already linked",
				zap.String("provider", login.ProviderName),
				zap.String("existing_id", holder.ID),
			)
			return "", apperrors.NewDuplicateLoginError(login.ProviderName, login.ProviderKey)
		}
	}

	id, err := r.docs.Create(ctx, u)
	if err != nil {
		r.log.Error("failed to create user", zap.Error(err), zap.String("email_normalized", u.NormalizedEmail))
		return "", translate(err, "user", "")
	}

	r.log.Info("user created", zap.String("id", id))
	return id, nil
}

// FindByID retrieves a user by their unique ID, returning nil on a miss.
func (r *UserRepo) FindByID(ctx context.Context, id string) (*user.User, error) {
	u, err := r.docs.Get(ctx, id)
	if err != nil {
		r.log.Error("failed to get user", zap.Error(err), zap.String("id", id))
		return nil, translate(err, "user", id)
	}
	return u, nil
}

// FindByName retrieves a user by user name. The comparison runs against the
// precomputed normalized field so lookups are case-insensitive by
// construction.
func (r *UserRepo) FindByName(ctx context.Context, userName string) (*user.User, error) {
	normalized := user.Normalize(userName)
	return r.findOne(ctx, func(u *user.User) bool {
		return u.NormalizedUserName == normalized
	})
}

// FindByEmail retrieves a user by email address via the precomputed
// normalized field.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	normalized := user.Normalize(email)
	return r.findOne(ctx, func(u *user.User) bool {
		return u.NormalizedEmail == normalized
	})
}

// FindByLogin retrieves the user holding the given external login, if any.
func (r *UserRepo) FindByLogin(ctx context.Context, providerName, providerKey string) (*user.User, error) {
	return r.findOne(ctx, func(u *user.User) bool {
		return u.HasLogin(providerName, providerKey)
	})
}

// Update replaces the stored user. The caller's copy must carry the
// concurrency token it last read; a stale token fails with a
// ConcurrencyError and the caller must re-read and retry. The repository
// never merges.
func (r *UserRepo) Update(ctx context.Context, u *user.User) error {
	if u == nil {
		return errors.New("user cannot be nil")
	}

	u.Normalize()

	if err := r.docs.Replace(ctx, u.ID, u); err != nil {
		if errors.Is(err, store.ErrConcurrency) {
			r.log.Warn("concurrent update rejected", zap.String("id", u.ID))
		} else {
			r.log.Error("failed to update user", zap.Error(err), zap.String("id", u.ID))
		}
		return translate(err, "user", u.ID)
	}

	r.log.Info("user updated", zap.String("id", u.ID))
	return nil
}

// Delete removes the user by id. Deletion is final regardless of interleaved
// edits, so it is not conditioned on the concurrency token.
func (r *UserRepo) Delete(ctx context.Context, u *user.User) (bool, error) {
	if u == nil {
		return false, errors.New("user cannot be nil")
	}

	removed, err := r.docs.Delete(ctx, u.ID)
	if err != nil {
		r.log.Error("failed to delete user", zap.Error(err), zap.String("id", u.ID))
		return false, translate(err, "user", u.ID)
	}

	if removed {
		r.log.Info("user deleted", zap.String("id", u.ID))
	}
	return removed, nil
}

// findOne runs a predicate query and returns the first match, or nil.
func (r *UserRepo) findOne(ctx context.Context, match func(*user.User) bool) (*user.User, error) {
	results, err := r.docs.Query(ctx, match)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.log.Error("failed to query users", zap.Error(err))
		}
		return nil, translate(err, "user", "")
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// translate maps document store sentinels onto the application error
// taxonomy. Callers above the repository never inspect raw store errors.
func translate(err error, resource, id string) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Cancellation is the caller's doing, not a store failure.
		return err
	case errors.Is(err, store.ErrConcurrency):
		return apperrors.NewConcurrencyError(resource, id)
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NewNotFoundError(resource, "")
	case errors.Is(err, store.ErrUnavailable):
		return apperrors.NewUnavailableError("document store unavailable", err)
	default:
		return apperrors.NewInternalError("document store operation failed", err)
	}
}
