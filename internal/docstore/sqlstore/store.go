// Package sqlstore implements the docstore contract on a relational database
// via GORM. Each document is one row holding its JSON body; the schema is
// otherwise ignorant of the document shape. Optimistic concurrency is a
// conditional UPDATE on (id, etag), so the mismatch check happens inside the
// database rather than in process.
package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"travel-account-service/internal/docstore"
)

// Store implements docstore.Store[T] backed by a SQL database.
type Store[T docstore.Document] struct {
	db         *gorm.DB
	collection string
	newDoc     func() T
	log        *zap.Logger
}

// documentRow is the storage schema for serialized documents.
type documentRow struct {
	ID         string    `gorm:"primaryKey;size:64"`
	Collection string    `gorm:"primaryKey;size:64;index"`
	ETag       string    `gorm:"not null;size:64"`
	Data       []byte    `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName specifies the table name for the documentRow model.
func (documentRow) TableName() string {
	return "documents"
}

// New creates a SQL-backed document store for one collection and ensures the
// backing table exists. newDoc must allocate an empty document for
// unmarshalling.
func New[T docstore.Document](db *gorm.DB, collection string, newDoc func() T, log *zap.Logger) (*Store[T], error) {
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return &Store[T]{
		db:         db,
		collection: collection,
		newDoc:     newDoc,
		log:        log,
	}, nil
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

	row := documentRow{
		ID:         id,
		Collection: s.collection,
		ETag:       doc.ConcurrencyToken(),
		Data:       data,
		UpdatedAt:  time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", docstore.ErrConflict
		}
		s.log.Error("failed to create document", zap.String("collection", s.collection), zap.String("id", id), zap.Error(err))
		return "", unavailable(err)
	}

	s.log.Debug("document created", zap.String("collection", s.collection), zap.String("id", id))
	return id, nil
}

// Get performs a point lookup, returning the zero value on a miss.
func (s *Store[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T

	var row documentRow
	err := s.db.WithContext(ctx).
		Where("id = ? AND collection = ?", id, s.collection).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return zero, nil
	}
	if err != nil {
		s.log.Error("failed to get document", zap.String("collection", s.collection), zap.String("id", id), zap.Error(err))
		return zero, unavailable(err)
	}

	return s.unmarshalRow(row)
}

// Query evaluates the predicate client-side over every document in the
// collection, stopping promptly once the context is cancelled.
func (s *Store[T]) Query(ctx context.Context, match func(T) bool) ([]T, error) {
	var rows []documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ?", s.collection).
		Find(&rows).Error
	if err != nil {
		s.log.Error("failed to query documents", zap.String("collection", s.collection), zap.Error(err))
		return nil, unavailable(err)
	}

	var results []T
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := s.unmarshalRow(row)
		if err != nil {
			return nil, err
		}
		if match(doc) {
			results = append(results, doc)
		}
	}
	return results, nil
}

// Replace swaps the stored document for doc. The UPDATE is conditioned on the
// caller's concurrency token so a stale writer loses inside the database.
func (s *Store[T]) Replace(ctx context.Context, id string, doc T) error {
	callerToken := doc.ConcurrencyToken()
	newToken := uuid.NewString()

	doc.SetConcurrencyToken(newToken)
	data, err := json.Marshal(doc)
	if err != nil {
		doc.SetConcurrencyToken(callerToken)
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res := s.db.WithContext(ctx).
		Model(&documentRow{}).
		Where("id = ? AND collection = ? AND e_tag = ?", id, s.collection, callerToken).
		Updates(map[string]any{
			"e_tag":      newToken,
			"data":       data,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		doc.SetConcurrencyToken(callerToken)
		s.log.Error("failed to replace document", zap.String("collection", s.collection), zap.String("id", id), zap.Error(res.Error))
		return unavailable(res.Error)
	}

	if res.RowsAffected == 0 {
		doc.SetConcurrencyToken(callerToken)

		// Distinguish a stale token from a missing document.
		var count int64
		err := s.db.WithContext(ctx).
			Model(&documentRow{}).
			Where("id = ? AND collection = ?", id, s.collection).
			Count(&count).Error
		if err != nil {
			return unavailable(err)
		}
		if count == 0 {
			return docstore.ErrNotFound
		}
		return docstore.ErrConcurrency
	}

	s.log.Debug("document replaced", zap.String("collection", s.collection), zap.String("id", id))
	return nil
}

// Delete removes a document by id, reporting whether it existed.
func (s *Store[T]) Delete(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND collection = ?", id, s.collection).
		Delete(&documentRow{})
	if res.Error != nil {
		s.log.Error("failed to delete document", zap.String("collection", s.collection), zap.String("id", id), zap.Error(res.Error))
		return false, unavailable(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Close is a no-op: the GORM handle is a shared resource owned by the
// caller and released at shutdown.
func (s *Store[T]) Close() error {
	return nil
}

// unavailable classifies a backend failure. Context errors pass through
// untouched so a cancelled call never reads as a store outage.
func unavailable(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", docstore.ErrUnavailable, err)
}

// unmarshalRow decodes a stored row into a document, restoring the
// concurrency token from the row's ETag column.
func (s *Store[T]) unmarshalRow(row documentRow) (T, error) {
	var zero T

	doc := s.newDoc()
	if err := json.Unmarshal(row.Data, doc); err != nil {
		return zero, fmt.Errorf("failed to unmarshal document %q: %w", row.ID, err)
	}
	doc.SetConcurrencyToken(row.ETag)
	return doc, nil
}
