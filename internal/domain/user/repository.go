package user

import "context"

// Repository defines the interface for user persistence operations.
// It abstracts the document store, allowing different backends
// (e.g., Redis, SQL) to be used interchangeably.
//
// Find methods return (nil, nil) when no user matches; absence is not an
// error. Create rejects candidates whose normalized email or any external
// login is already held by an existing user. Update requires the caller's
// in-memory copy to carry the concurrency token it last read and fails with
// a ConcurrencyError when the token is stale; it never merges. Delete is by
// id only, succeeds regardless of token staleness, and reports whether a
// document was removed.
type Repository interface {
	Create(ctx context.Context, u *User) (string, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByName(ctx context.Context, userName string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByLogin(ctx context.Context, providerName, providerKey string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, u *User) (bool, error)
}
