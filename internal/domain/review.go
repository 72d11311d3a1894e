package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/netz98/app-builder-product-reviews/pkg/errors"
)

// Review represents a user-submitted product review record.
type Review struct {
	ID          string `json:"id"           bson:"id"`
	SKU         string `json:"sku"          bson:"sku"`
	Rating      int    `json:"rating"       bson:"rating"`
	Title       string `json:"title"        bson:"title"`
	Text        string `json:"text"         bson:"text"`
	Author      string `json:"author"       bson:"author"`
	AuthorEmail string `json:"author_email" bson:"author_email"`
	Status      string `json:"status"       bson:"status"`
	CreatedAt   string `json:"created_at"   bson:"created_at"`
	UpdatedAt   string `json:"updated_at"   bson:"updated_at"`
}

// StatusPending is the status assigned to newly created reviews.
const StatusPending = "pending"

// requiredFields are checked in declaration order; the validator reports the
// first failing field only.
var requiredFields = []string{"sku", "rating", "title", "text", "author", "author_email"}

// mutableFields is the set of fields an update patch may overwrite.
// id is never caller-writable and created_at is immutable after creation;
// updated_at is managed by UpdateReview itself.
var mutableFields = map[string]struct{}{
	"sku":          {},
	"rating":       {},
	"title":        {},
	"text":         {},
	"author":       {},
	"author_email": {},
	"status":       {},
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validation messages, kept stable because callers surface them verbatim.
const (
	msgMissingField  = "Missing required field: %s"
	msgInvalidEmail  = "Invalid email format for author_email."
	msgInvalidRating = "Rating must be a number between 1 and 5."
)

// ValidateReview checks a candidate review document against the schema rules.
// With partial=false every required field must be present and non-blank; with
// partial=true only fields present in the candidate are checked. Format rules
// (email shape, rating range) apply whenever the field is present. The first
// failing rule wins: required-field checks in declaration order, then email
// format, then rating range.
func ValidateReview(candidate map[string]any, partial bool) error {
	for _, field := range requiredFields {
		value, present := candidate[field]
		if (!partial || present) && !isRequiredFieldValid(value) {
			return apperrors.InvalidInput(fmt.Sprintf(msgMissingField, field))
		}
	}
	if value, present := candidate["author_email"]; present && !isEmailValid(value) {
		return apperrors.InvalidInput(msgInvalidEmail)
	}
	if value, present := candidate["rating"]; present && !isRatingValid(value) {
		return apperrors.InvalidInput(msgInvalidRating)
	}
	return nil
}

// CreateReview validates a full candidate document and materializes a new
// record: generated id, both timestamps set to now, rating coerced to an
// integer, and status defaulted to pending when unspecified.
func CreateReview(params map[string]any) (*Review, error) {
	if err := ValidateReview(params, false); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	rating, _ := toNumber(params["rating"])

	status := StatusPending
	if s := toString(params["status"]); s != "" {
		status = s
	}

	return &Review{
		ID:          uuid.New().String(),
		SKU:         toString(params["sku"]),
		Rating:      int(rating),
		Title:       toString(params["title"]),
		Text:        toString(params["text"]),
		Author:      toString(params["author"]),
		AuthorEmail: toString(params["author_email"]),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdateReview applies a patch to a copy of an existing record. Only keys in
// the mutable field set are copied (unknown keys and id/created_at are
// silently ignored), updated_at is refreshed, and the merged document is
// re-validated in partial mode. The existing record is never modified.
func UpdateReview(existing *Review, patch map[string]any) (*Review, error) {
	doc := existing.Document()
	for key, value := range patch {
		if _, ok := mutableFields[key]; ok {
			doc[key] = value
		}
	}
	doc["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	if err := ValidateReview(doc, true); err != nil {
		return nil, err
	}
	return reviewFromDocument(doc), nil
}

// ParseReview rehydrates a previously stored record from a structured
// document or its textual JSON encoding. It returns nil on decode failure or
// when the document fails partial validation; it never returns an error,
// because callers treat an unparseable stored record as not found.
func ParseReview(raw any) *Review {
	if raw == nil {
		return nil
	}

	var doc map[string]any
	switch v := raw.(type) {
	case *Review:
		if v == nil {
			return nil
		}
		doc = v.Document()
	case map[string]any:
		doc = v
	case string:
		if err := json.Unmarshal([]byte(v), &doc); err != nil {
			return nil
		}
	case []byte:
		if err := json.Unmarshal(v, &doc); err != nil {
			return nil
		}
	default:
		return nil
	}

	if err := ValidateReview(doc, true); err != nil {
		return nil
	}
	return reviewFromDocument(doc)
}

// Document returns the record as a generic document suitable for storage.
func (r *Review) Document() map[string]any {
	return map[string]any{
		"id":           r.ID,
		"sku":          r.SKU,
		"rating":       r.Rating,
		"title":        r.Title,
		"text":         r.Text,
		"author":       r.Author,
		"author_email": r.AuthorEmail,
		"status":       r.Status,
		"created_at":   r.CreatedAt,
		"updated_at":   r.UpdatedAt,
	}
}

// reviewFromDocument builds a Review from a generic document, coercing the
// rating across the numeric types different decoders produce.
func reviewFromDocument(doc map[string]any) *Review {
	rating, _ := toNumber(doc["rating"])
	return &Review{
		ID:          toString(doc["id"]),
		SKU:         toString(doc["sku"]),
		Rating:      int(rating),
		Title:       toString(doc["title"]),
		Text:        toString(doc["text"]),
		Author:      toString(doc["author"]),
		AuthorEmail: toString(doc["author_email"]),
		Status:      toString(doc["status"]),
		CreatedAt:   toString(doc["created_at"]),
		UpdatedAt:   toString(doc["updated_at"]),
	}
}

// isRequiredFieldValid reports whether a value satisfies the required-field
// rule: present, non-nil, and not a blank string.
func isRequiredFieldValid(value any) bool {
	if value == nil {
		return false
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

func isEmailValid(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	return emailPattern.MatchString(s)
}

func isRatingValid(value any) bool {
	n, ok := toNumber(value)
	return ok && n >= 1 && n <= 5
}

// toNumber converts the numeric types produced by JSON decoding, BSON
// decoding, and query strings into a float64.
func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
