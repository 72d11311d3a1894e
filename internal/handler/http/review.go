// Package http exposes the review operations over HTTP.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/netz98/app-builder-product-reviews/internal/service"
	apperrors "github.com/netz98/app-builder-product-reviews/pkg/errors"
	"github.com/netz98/app-builder-product-reviews/pkg/httputil"
	"github.com/netz98/app-builder-product-reviews/pkg/validator"
)

// filterParams are the query-string parameters forwarded to the list
// operation. Everything else on the URL is ignored.
var filterParams = []string{
	"sku", "rating", "title", "text", "author", "author_email", "status",
	"page", "pageSize", "sortBy", "sortDir",
}

// ReviewHandler serves the review endpoints.
type ReviewHandler struct {
	svc    *service.ReviewService
	logger *slog.Logger
}

// NewReviewHandler builds the handler over the given service.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{svc: svc, logger: logger}
}

// idsRequest accepts either a list of ids or a single id.
type idsRequest struct {
	IDs []string `json:"ids" validate:"omitempty,dive,max=128"`
	ID  string   `json:"id" validate:"omitempty,max=128"`
}

// normalized folds the single-id form into the list form.
func (r idsRequest) normalized() []string {
	if len(r.IDs) > 0 {
		return r.IDs
	}
	if strings.TrimSpace(r.ID) != "" {
		return []string{r.ID}
	}
	return nil
}

type updateRequest struct {
	Reviews []map[string]any `json:"reviews" validate:"required,min=1"`
}

type searchResponse struct {
	Reviews []any `json:"reviews"`
}

type batchResponse struct {
	Results []service.BatchResult `json:"results"`
}

// Create handles POST /api/v1/reviews.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var params map[string]any
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		httputil.WriteValidationError(w, apperrors.InvalidInput("Invalid JSON body."))
		return
	}

	review, err := h.svc.Create(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, review)
}

// Search handles POST /api/v1/reviews/search, fetching reviews by id.
func (h *ReviewHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ids := req.normalized()
	if len(ids) == 0 {
		httputil.WriteError(w, r, apperrors.InvalidInput("Missing id."), h.logger)
		return
	}

	reviews, err := h.svc.GetByIDs(r.Context(), ids)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// Marshal through any so an empty result serializes as [] not null.
	items := make([]any, 0, len(reviews))
	for _, review := range reviews {
		items = append(items, review)
	}
	httputil.WriteJSON(w, http.StatusOK, searchResponse{Reviews: items})
}

// List handles GET /api/v1/reviews with filter, sort, and pagination
// parameters on the query string.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	params := map[string]any{}
	q := r.URL.Query()
	for _, name := range filterParams {
		if value := q.Get(name); value != "" {
			params[name] = value
		}
	}

	result, err := h.svc.List(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// Update handles PATCH /api/v1/reviews, applying a batch of partial updates.
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	results := h.svc.UpdateBatch(r.Context(), req.Reviews)
	httputil.WriteJSON(w, http.StatusOK, batchResponse{Results: results})
}

// Delete handles DELETE /api/v1/reviews, removing a batch of reviews by id.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ids := req.normalized()
	if len(ids) == 0 {
		httputil.WriteError(w, r, apperrors.InvalidInput("Missing id."), h.logger)
		return
	}

	results := h.svc.DeleteBatch(r.Context(), ids)
	httputil.WriteJSON(w, http.StatusOK, batchResponse{Results: results})
}
