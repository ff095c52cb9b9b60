// Package docstore defines the capability contract for a schemaless document
// store addressed by id and by predicate query. Backends (Redis, SQL) are
// interchangeable behind the Store interface; callers never see raw driver
// errors, only the sentinel kinds declared here.
package docstore

import (
	"context"
	"errors"
)

// Sentinel errors returned by store backends.
var (
	// ErrNotFound indicates the document id does not exist in the store.
	ErrNotFound = errors.New("docstore: document not found")

	// ErrConflict indicates a create collided with an existing document id.
	ErrConflict = errors.New("docstore: document already exists")

	// ErrConcurrency indicates the supplied concurrency token no longer
	// matches the stored document.
	ErrConcurrency = errors.New("docstore: concurrency token mismatch")

	// ErrUnavailable indicates a transport or backend failure.
	ErrUnavailable = errors.New("docstore: store unavailable")
)

// Document is the shape a stored aggregate must expose: an identifier and an
// opaque concurrency token. The store assigns both; every successful write
// assigns a token distinct from the one supplied by the caller.
type Document interface {
	DocumentID() string
	SetDocumentID(id string)
	ConcurrencyToken() string
	SetConcurrencyToken(token string)
}

// Store is a generic async CRUD and predicate-query contract over a remote
// schemaless store. Implementations are safe for concurrent use and hold no
// cross-call mutable state beyond their connection handle, which Close
// releases.
type Store[T Document] interface {
	// Create persists a new document, assigning a fresh id (when absent) and
	// concurrency token, and returns the id. Fails with ErrConflict when the
	// id already exists.
	Create(ctx context.Context, doc T) (string, error)

	// Get performs a point lookup. A miss returns the zero value and a nil
	// error; absence is not a failure.
	Get(ctx context.Context, id string) (T, error)

	// Query returns all documents matching the predicate. It honours context
	// cancellation mid-flight: once ctx is done it returns promptly with
	// ctx.Err() and no partial result.
	Query(ctx context.Context, match func(T) bool) ([]T, error)

	// Replace swaps the stored document for doc. The stored concurrency token
	// must equal doc's token; a mismatch fails with ErrConcurrency and a
	// missing id with ErrNotFound. On success doc carries a new token.
	Replace(ctx context.Context, id string, doc T) error

	// Delete removes the document by id. It is idempotent: false means not
	// found, never an error.
	Delete(ctx context.Context, id string) (bool, error)

	// Close releases the backend connection.
	Close() error
}
