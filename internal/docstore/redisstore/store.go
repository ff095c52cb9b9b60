// Package redisstore implements the docstore contract on Redis. Documents are
// stored as JSON values under per-collection keys, with a set holding the
// collection's ids for predicate queries. Optimistic concurrency is enforced
// with WATCH/MULTI: a replace whose token no longer matches the stored
// document is rejected, never applied.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"travel-account-service/internal/docstore"
)

// replaceAttempts bounds the WATCH retry loop. A transaction aborted by a
// concurrent writer is re-read so the token comparison runs against the new
// document; a genuinely stale caller fails on the next pass.
const replaceAttempts = 3

// Store implements docstore.Store[T] backed by Redis.
type Store[T docstore.Document] struct {
	client     *redis.Client
	collection string
	newDoc     func() T
	log        *zap.Logger
}

// New creates a Redis-backed document store for one collection. newDoc must
// allocate an empty document for unmarshalling.
func New[T docstore.Document](client *redis.Client, collection string, newDoc func() T, log *zap.Logger) *Store[T] {
	return &Store[T]{
		client:     client,
		collection: collection,
		newDoc:     newDoc,
		log:        log,
	}
}

// docKey returns the Redis key holding a document's JSON body.
func (s *Store[T]) docKey(id string) string {
	return fmt.Sprintf("%s:doc:%s", s.collection, id)
}

// idsKey returns the Redis key of the set holding all ids in the collection.
func (s *Store[T]) idsKey() string {
	return fmt.Sprintf("%s:ids", s.collection)
}

// Create persists a new document and returns its id.
func (s *Store[T]) Create(ctx context.Context, doc T) (string, error) {
	id := doc.DocumentID()
	if id == "" {
		id = uuid.NewString()
		doc.SetDocumentID(id)
	}
	doc.SetConcurrencyToken(uuid.NewString())

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.docKey(id), data, 0).Result()
	if err != nil {
		s.log.Error("failed to create document", zap.String("collection", s.collection), zap.String("id", id), zap.Error(err))
		return "", unavailable(err)
	}
	if !ok {
		return "", docstore.ErrConflict
	}

	if err := s.client.SAdd(ctx, s.idsKey(), id).Err(); err != nil {
		s.log.Error("failed to index document", zap.String("collection", s.collection), zap.String("id", id), zap.Error(err))
		return "", unavailable(err)
	}

	s.log.Debug("document created", zap.String("collection", s.collection), zap.String("id", id))
	return id, nil
}

// Get performs a point lookup, returning the zero value on a miss.
func (s *Store[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T

	data, err := s.client.Get(ctx, s.docKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, nil
	}
	if err != nil {
		s.log.Error("failed to get document", zap.String("collection", s.collection), zap.String("id", id), zap.Error(err))
		return zero, unavailable(err)
	}

	doc := s.newDoc()
	if err := json.Unmarshal(data, doc); err != nil {
		return zero, fmt.Errorf("failed to unmarshal document %q: %w", id, err)
	}
	return doc, nil
}

// Query evaluates the predicate client-side over every document in the
// collection. Cancellation is checked between documents so a cancelled query
// returns promptly without a partial answer.
func (s *Store[T]) Query(ctx context.Context, match func(T) bool) ([]T, error) {
	ids, err := s.client.SMembers(ctx, s.idsKey()).Result()
	if err != nil {
		s.log.Error("failed to list document ids", zap.String("collection", s.collection), zap.Error(err))
		return nil, unavailable(err)
	}

	var results []T
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if isZero(doc) {
			// Deleted between SMEMBERS and GET.
			continue
		}
		if match(doc) {
			results = append(results, doc)
		}
	}
	return results, nil
}

// Replace swaps the stored document for doc under optimistic concurrency.
func (s *Store[T]) Replace(ctx context.Context, id string, doc T) error {
	key := s.docKey(id)
	callerToken := doc.ConcurrencyToken()

	for attempt := 0; attempt < replaceAttempts; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return docstore.ErrNotFound
			}
			if err != nil {
				return unavailable(err)
			}

			stored := s.newDoc()
			if err := json.Unmarshal(data, stored); err != nil {
				return fmt.Errorf("failed to unmarshal document %q: %w", id, err)
			}
			if stored.ConcurrencyToken() != callerToken {
				return docstore.ErrConcurrency
			}

			doc.SetConcurrencyToken(uuid.NewString())
			payload, err := json.Marshal(doc)
			if err != nil {
				doc.SetConcurrencyToken(callerToken)
				return fmt.Errorf("failed to marshal document: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, 0)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			// A concurrent writer landed between read and commit; the next
			// pass re-reads and compares against the new token.
			doc.SetConcurrencyToken(callerToken)
			continue
		}
		if err != nil {
			doc.SetConcurrencyToken(callerToken)
			if errors.Is(err, docstore.ErrNotFound) || errors.Is(err, docstore.ErrConcurrency) {
				return err
			}
			s.log.Error("failed to replace document", zap.String("collection", s.collection), zap.String("id", id), zap.Error(err))
			return err
		}

		s.log.Debug("document replaced", zap.String("collection", s.collection), zap.String("id", id))
		return nil
	}

	doc.SetConcurrencyToken(callerToken)
	return docstore.ErrConcurrency
}

// Delete removes a document by id, reporting whether it existed.
func (s *Store[T]) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.client.Del(ctx, s.docKey(id)).Result()
	if err != nil {
		s.log.Error("failed to delete document", zap.String("collection", s.collection), zap.String("id", id), zap.Error(err))
		return false, unavailable(err)
	}

	if err := s.client.SRem(ctx, s.idsKey(), id).Err(); err != nil {
		s.log.Error("failed to unindex document", zap.String("collection", s.collection), zap.String("id", id), zap.Error(err))
		return false, unavailable(err)
	}

	return removed > 0, nil
}

// Close is a no-op: the Redis client is a shared resource owned by the
// caller and released at shutdown.
func (s *Store[T]) Close() error {
	return nil
}

// isZero reports whether a generic document value is its zero value (a nil
// pointer for pointer-shaped documents).
func isZero[T docstore.Document](doc T) bool {
	var zero T
	return any(doc) == any(zero)
}

// unavailable classifies a backend failure. Context errors pass through
// untouched so a cancelled call never reads as a store outage.
func unavailable(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", docstore.ErrUnavailable, err)
}
