package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netz98/app-builder-product-reviews/internal/domain"
	"github.com/netz98/app-builder-product-reviews/internal/repository"
)

// stubStore is a map-backed RecordStore.
type stubStore struct {
	docs   map[string]map[string]any
	cursor *stubCursor
	total  int64

	getErr error
	putErr error
	delErr error
}

func newStubStore() *stubStore {
	return &stubStore{docs: map[string]map[string]any{}, cursor: &stubCursor{}}
}

func (s *stubStore) Get(_ context.Context, key string) (map[string]any, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	doc, ok := s.docs[key]
	if !ok {
		return nil, nil
	}
	return doc, nil
}

func (s *stubStore) Put(_ context.Context, key string, value any) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	s.docs[key] = value.(map[string]any)
	return key, nil
}

func (s *stubStore) Delete(_ context.Context, key string) error {
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.docs, key)
	return nil
}

func (s *stubStore) Find(context.Context, map[string]any) (repository.Cursor, error) {
	return s.cursor, nil
}

func (s *stubStore) Count(context.Context, map[string]any) (int64, error) {
	return s.total, nil
}

type stubCursor struct {
	docs []map[string]any
	pos  int

	sortField string
	sortDir   int
	skip      int64
	limit     int64
	closed    bool
}

func (c *stubCursor) Sort(field string, dir int) repository.Cursor {
	c.sortField, c.sortDir = field, dir
	return c
}
func (c *stubCursor) Skip(n int64) repository.Cursor  { c.skip = n; return c }
func (c *stubCursor) Limit(n int64) repository.Cursor { c.limit = n; return c }

func (c *stubCursor) Next(context.Context) bool { return c.pos < len(c.docs) }

func (c *stubCursor) Decode(into *map[string]any) error {
	*into = c.docs[c.pos]
	c.pos++
	return nil
}

func (c *stubCursor) Err() error                  { return nil }
func (c *stubCursor) Close(context.Context) error { c.closed = true; return nil }

// recordingEvents captures emitted lifecycle events.
type recordingEvents struct {
	created []string
	updated []string
	deleted []string
}

func (r *recordingEvents) ReviewCreated(_ context.Context, review *domain.Review) {
	r.created = append(r.created, review.ID)
}

func (r *recordingEvents) ReviewUpdated(_ context.Context, review *domain.Review) {
	r.updated = append(r.updated, review.ID)
}

func (r *recordingEvents) ReviewDeleted(_ context.Context, id string) {
	r.deleted = append(r.deleted, id)
}

func newTestService(store *stubStore, events *recordingEvents) *ReviewService {
	return NewReviewService(store, events, slog.New(slog.DiscardHandler))
}

func validParams() map[string]any {
	return map[string]any{
		"sku":          "SKU-100",
		"rating":       5,
		"title":        "Great",
		"text":         "Works as advertised.",
		"author":       "Jo Doe",
		"author_email": "jo@example.com",
	}
}

func TestCreate_PersistsAndPublishes(t *testing.T) {
	store := newStubStore()
	events := &recordingEvents{}
	svc := newTestService(store, events)

	review, err := svc.Create(context.Background(), validParams())

	require.NoError(t, err)
	require.NotNil(t, review)
	assert.Contains(t, store.docs, review.ID)
	assert.Equal(t, []string{review.ID}, events.created)
}

func TestCreate_ValidationFailureStoresNothing(t *testing.T) {
	store := newStubStore()
	events := &recordingEvents{}
	svc := newTestService(store, events)

	params := validParams()
	delete(params, "text")

	review, err := svc.Create(context.Background(), params)

	assert.Nil(t, review)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required field: text")
	assert.Empty(t, store.docs)
	assert.Empty(t, events.created)
}

func TestCreate_StoreFailureSurfaces(t *testing.T) {
	store := newStubStore()
	store.putErr = errors.New("store down")
	svc := newTestService(store, &recordingEvents{})

	_, err := svc.Create(context.Background(), validParams())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")
}

func TestGetByIDs_SkipsBlanksAndOmitsMissing(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, &recordingEvents{})
	ctx := context.Background()

	first, err := svc.Create(ctx, validParams())
	require.NoError(t, err)
	second, err := svc.Create(ctx, validParams())
	require.NoError(t, err)

	reviews, err := svc.GetByIDs(ctx, []string{first.ID, "", "missing", second.ID})

	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, first.ID, reviews[0].ID)
	assert.Equal(t, second.ID, reviews[1].ID)
}

func TestList_AppliesCompiledQueryToCursor(t *testing.T) {
	store := newStubStore()
	review, err := domain.CreateReview(validParams())
	require.NoError(t, err)
	store.cursor.docs = []map[string]any{
		review.Document(),
		{"rating": 99}, // documents failing validation are skipped
	}
	store.total = 41

	svc := newTestService(store, &recordingEvents{})

	result, err := svc.List(context.Background(), map[string]any{
		"page":     "3",
		"pageSize": "5",
		"sortBy":   "rating",
		"sortDir":  "asc",
	})

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, review.ID, result.Items[0].ID)
	assert.Equal(t, int64(41), result.Total)
	assert.Equal(t, 3, result.Page)
	assert.Equal(t, 5, result.PageSize)
	assert.Equal(t, "rating", result.SortBy)
	assert.Equal(t, "asc", result.SortDir)

	assert.Equal(t, "rating", store.cursor.sortField)
	assert.Equal(t, 1, store.cursor.sortDir)
	assert.Equal(t, int64(10), store.cursor.skip)
	assert.Equal(t, int64(5), store.cursor.limit)
	assert.True(t, store.cursor.closed)
}

func TestUpdateBatch_ItemsAreIndependent(t *testing.T) {
	store := newStubStore()
	events := &recordingEvents{}
	svc := newTestService(store, events)
	ctx := context.Background()

	existing, err := svc.Create(ctx, validParams())
	require.NoError(t, err)
	store.docs["broken"] = map[string]any{"rating": 99}

	results := svc.UpdateBatch(ctx, []map[string]any{
		{"title": "no id here"},
		{"id": "missing", "title": "x"},
		{"id": "broken", "title": "x"},
		{"id": existing.ID, "rating": "abc"},
		{"id": existing.ID, "title": "Even better"},
	})

	require.Len(t, results, 5)

	assert.False(t, results[0].Success)
	assert.Equal(t, "Missing id.", results[0].Error)

	assert.False(t, results[1].Success)
	assert.Equal(t, "Review not found.", results[1].Error)

	assert.False(t, results[2].Success)
	assert.Equal(t, "Failed to parse or validate existing review.", results[2].Error)

	assert.False(t, results[3].Success)
	assert.Equal(t, "Rating must be a number between 1 and 5.", results[3].Error)

	assert.True(t, results[4].Success)
	require.NotNil(t, results[4].Review)
	assert.Equal(t, "Even better", results[4].Review.Title)

	// Only the successful item was persisted and published.
	assert.Equal(t, "Even better", store.docs[existing.ID]["title"])
	assert.Equal(t, []string{existing.ID}, events.updated)
}

func TestDeleteBatch_MissingIDsStillSucceed(t *testing.T) {
	store := newStubStore()
	events := &recordingEvents{}
	svc := newTestService(store, events)
	ctx := context.Background()

	existing, err := svc.Create(ctx, validParams())
	require.NoError(t, err)

	results := svc.DeleteBatch(ctx, []string{existing.ID, "never-existed", " "})

	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.False(t, results[2].Success)
	assert.Equal(t, "Missing id.", results[2].Error)

	assert.NotContains(t, store.docs, existing.ID)
	assert.Equal(t, []string{existing.ID, "never-existed"}, events.deleted)
}
