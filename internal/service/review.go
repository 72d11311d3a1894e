// Package service implements the review business operations on top of the
// repository and event layers.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/netz98/app-builder-product-reviews/internal/domain"
	"github.com/netz98/app-builder-product-reviews/internal/query"
	"github.com/netz98/app-builder-product-reviews/internal/repository"
	apperrors "github.com/netz98/app-builder-product-reviews/pkg/errors"
)

// RecordStore is the repository surface the service consumes.
type RecordStore interface {
	Get(ctx context.Context, key string) (map[string]any, error)
	Put(ctx context.Context, key string, value any) (string, error)
	Delete(ctx context.Context, key string) error
	Find(ctx context.Context, filter map[string]any) (repository.Cursor, error)
	Count(ctx context.Context, filter map[string]any) (int64, error)
}

// EventPublisher emits review lifecycle events. Implementations must be
// best-effort; the service never fails a request over a publish error.
type EventPublisher interface {
	ReviewCreated(ctx context.Context, review *domain.Review)
	ReviewUpdated(ctx context.Context, review *domain.Review)
	ReviewDeleted(ctx context.Context, id string)
}

// BatchResult reports the outcome of one item in a batch operation.
type BatchResult struct {
	ID      string         `json:"id"`
	Success bool           `json:"success"`
	Review  *domain.Review `json:"review,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// ListResult is the paginated response of a list operation.
type ListResult struct {
	Items    []*domain.Review `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	SortBy   string           `json:"sortBy"`
	SortDir  string           `json:"sortDir"`
}

// Batch item error messages, surfaced to callers verbatim.
const (
	errMissingID     = "Missing id."
	errReviewMissing = "Review not found."
	errStoredInvalid = "Failed to parse or validate existing review."
)

// ReviewService implements the review operations.
type ReviewService struct {
	store  RecordStore
	events EventPublisher
	logger *slog.Logger
}

// NewReviewService wires a service over the given store and event publisher.
func NewReviewService(store RecordStore, events EventPublisher, logger *slog.Logger) *ReviewService {
	return &ReviewService{store: store, events: events, logger: logger}
}

// Create validates the candidate document, persists a new review, and emits a
// created event.
func (s *ReviewService) Create(ctx context.Context, params map[string]any) (*domain.Review, error) {
	review, err := domain.CreateReview(params)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Put(ctx, review.ID, review.Document()); err != nil {
		return nil, apperrors.Store(err)
	}

	s.events.ReviewCreated(ctx, review)
	return review, nil
}

// GetByIDs fetches the reviews for the given ids. Blank ids are skipped and
// missing or unreadable records are omitted; the result preserves the order
// of the ids that resolved.
func (s *ReviewService) GetByIDs(ctx context.Context, ids []string) ([]*domain.Review, error) {
	reviews := make([]*domain.Review, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			continue
		}
		doc, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, apperrors.Store(err)
		}
		if doc == nil {
			continue
		}
		if review := domain.ParseReview(doc); review != nil {
			reviews = append(reviews, review)
		}
	}
	return reviews, nil
}

// List compiles the caller's parameters into a store query and returns one
// page of matching reviews together with the total match count.
func (s *ReviewService) List(ctx context.Context, params map[string]any) (*ListResult, error) {
	q := query.Compile(params)

	cursor, err := s.store.Find(ctx, q.Filter)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	defer func() {
		if cerr := cursor.Close(ctx); cerr != nil {
			s.logger.WarnContext(ctx, "failed to close cursor", slog.String("error", cerr.Error()))
		}
	}()

	cursor.Sort(q.SortField, q.SortDirection).Skip(q.Skip).Limit(q.Limit)

	items := make([]*domain.Review, 0, q.PageSize)
	for cursor.Next(ctx) {
		var doc map[string]any
		if err := cursor.Decode(&doc); err != nil {
			return nil, apperrors.Store(err)
		}
		if review := domain.ParseReview(repository.Normalize(doc)); review != nil {
			items = append(items, review)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.Store(err)
	}

	total, err := s.store.Count(ctx, q.Filter)
	if err != nil {
		return nil, apperrors.Store(err)
	}

	return &ListResult{
		Items:    items,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
		SortBy:   q.SortBy,
		SortDir:  q.SortDir,
	}, nil
}

// UpdateBatch applies each patch independently. One result is returned per
// patch, in order; a failing item never aborts the rest of the batch.
func (s *ReviewService) UpdateBatch(ctx context.Context, patches []map[string]any) []BatchResult {
	results := make([]BatchResult, 0, len(patches))
	for _, patch := range patches {
		results = append(results, s.updateOne(ctx, patch))
	}
	return results
}

func (s *ReviewService) updateOne(ctx context.Context, patch map[string]any) BatchResult {
	id, _ := patch["id"].(string)
	if strings.TrimSpace(id) == "" {
		return BatchResult{Success: false, Error: errMissingID}
	}

	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return BatchResult{ID: id, Success: false, Error: err.Error()}
	}
	if doc == nil {
		return BatchResult{ID: id, Success: false, Error: errReviewMissing}
	}

	existing := domain.ParseReview(doc)
	if existing == nil {
		return BatchResult{ID: id, Success: false, Error: errStoredInvalid}
	}

	updated, err := domain.UpdateReview(existing, patch)
	if err != nil {
		return BatchResult{ID: id, Success: false, Error: errorMessage(err)}
	}

	if _, err := s.store.Put(ctx, id, updated.Document()); err != nil {
		return BatchResult{ID: id, Success: false, Error: err.Error()}
	}

	s.events.ReviewUpdated(ctx, updated)
	return BatchResult{ID: id, Success: true, Review: updated}
}

// DeleteBatch removes each id independently. Deleting an id that does not
// exist reports success, so retried batches stay idempotent.
func (s *ReviewService) DeleteBatch(ctx context.Context, ids []string) []BatchResult {
	results := make([]BatchResult, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			results = append(results, BatchResult{Success: false, Error: errMissingID})
			continue
		}
		if err := s.store.Delete(ctx, id); err != nil {
			results = append(results, BatchResult{ID: id, Success: false, Error: err.Error()})
			continue
		}
		s.events.ReviewDeleted(ctx, id)
		results = append(results, BatchResult{ID: id, Success: true})
	}
	return results
}

// errorMessage extracts the caller-facing message from an application error.
func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
