package sqlstore

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"travel-account-service/internal/docstore"
)

// testDoc is a minimal document shape for store tests.
type testDoc struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tag  string `json:"_etag,omitempty"`
}

func (d *testDoc) DocumentID() string             { return d.ID }
func (d *testDoc) SetDocumentID(id string)        { d.ID = id }
func (d *testDoc) ConcurrencyToken() string       { return d.Tag }
func (d *testDoc) SetConcurrencyToken(tok string) { d.Tag = tok }

// setupTestStore creates an in-memory SQLite-backed store for testing
func setupTestStore(t *testing.T) *Store[*testDoc] {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	store, err := New(db, "widgets", func() *testDoc { return &testDoc{} }, zaptest.NewLogger(t))
	require.NoError(t, err)
	return store
}

func TestStore_Create_AssignsIDAndToken(t *testing.T) {
	store := setupTestStore(t)

	doc := &testDoc{Name: "alpha"}
	id, err := store.Create(context.Background(), doc)
	require.NoError(t, err)

	assert.NotEmpty(t, id)
	assert.Equal(t, id, doc.ID)
	assert.NotEmpty(t, doc.Tag)
}

func TestStore_Create_DuplicateID(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Create(context.Background(), &testDoc{ID: "fixed", Name: "alpha"})
	require.NoError(t, err)

	_, err = store.Create(context.Background(), &testDoc{ID: "fixed", Name: "beta"})
	assert.ErrorIs(t, err, docstore.ErrConflict)
}

func TestStore_Get_Miss(t *testing.T) {
	store := setupTestStore(t)

	doc, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestStore_Query_Predicate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"alpha", "beta", "alphabet"} {
		_, err := store.Create(ctx, &testDoc{Name: name})
		require.NoError(t, err)
	}

	results, err := store.Query(ctx, func(d *testDoc) bool {
		return len(d.Name) > 4
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestStore_Query_Cancelled(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Create(context.Background(), &testDoc{Name: "alpha"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Query(ctx, func(d *testDoc) bool { return true })
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, docstore.ErrUnavailable)
}

func TestStore_Replace_ConditionalWrite(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	doc := &testDoc{Name: "alpha"}
	id, err := store.Create(ctx, doc)
	require.NoError(t, err)

	// Two callers read the same version.
	first, err := store.Get(ctx, id)
	require.NoError(t, err)
	second, err := store.Get(ctx, id)
	require.NoError(t, err)

	first.Name = "first wins"
	require.NoError(t, store.Replace(ctx, id, first))
	assert.NotEqual(t, doc.Tag, first.Tag)

	second.Name = "second loses"
	err = store.Replace(ctx, id, second)
	assert.ErrorIs(t, err, docstore.ErrConcurrency)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "first wins", got.Name)
	assert.Equal(t, first.Tag, got.Tag)
}

func TestStore_Replace_NotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.Replace(context.Background(), "missing", &testDoc{ID: "missing", Tag: "whatever"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, &testDoc{Name: "alpha"})
	require.NoError(t, err)

	removed, err := store.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStore_CollectionsAreIsolated(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	log := zaptest.NewLogger(t)

	widgets, err := New(db, "widgets", func() *testDoc { return &testDoc{} }, log)
	require.NoError(t, err)
	gadgets, err := New(db, "gadgets", func() *testDoc { return &testDoc{} }, log)
	require.NoError(t, err)

	ctx := context.Background()
	id, err := widgets.Create(ctx, &testDoc{Name: "alpha"})
	require.NoError(t, err)

	got, err := gadgets.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_Close_DoesNotReleaseSharedHandle(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	log := zaptest.NewLogger(t)

	widgets, err := New(db, "widgets", func() *testDoc { return &testDoc{} }, log)
	require.NoError(t, err)
	gadgets, err := New(db, "gadgets", func() *testDoc { return &testDoc{} }, log)
	require.NoError(t, err)

	require.NoError(t, widgets.Close())

	// The connection belongs to the caller; another store on the same
	// handle keeps working after a sibling closes.
	ctx := context.Background()
	_, err = gadgets.Create(ctx, &testDoc{Name: "alpha"})
	assert.NoError(t, err)
}
