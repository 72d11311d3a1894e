package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func TestValidateReview_ReportsFirstMissingFieldInOrder(t *testing.T) {
	params := validParams()
	delete(params, "rating")
	delete(params, "author")

	err := ValidateReview(params, false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required field: rating")
}

func TestValidateReview_BlankStringCountsAsMissing(t *testing.T) {
	params := validParams()
	params["title"] = "   "

	err := ValidateReview(params, false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required field: title")
}

func TestValidateReview_PartialSkipsAbsentFields(t *testing.T) {
	err := ValidateReview(map[string]any{"title": "Updated"}, true)
	assert.NoError(t, err)
}

func TestValidateReview_PartialStillChecksPresentFields(t *testing.T) {
	err := ValidateReview(map[string]any{"rating": 9}, true)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Rating must be a number between 1 and 5.")
}

func TestValidateReview_EmailShapes(t *testing.T) {
	cases := []struct {
		email string
		valid bool
	}{
		{"jo@example.com", true},
		{"a@b.co", true},
		{"no-at-sign", false},
		{"two@@example.com", false},
		{"no-domain@", false},
		{"no-tld@example", false},
		{"spaces in@example.com", false},
	}

	for _, tc := range cases {
		params := validParams()
		params["author_email"] = tc.email

		err := ValidateReview(params, false)
		if tc.valid {
			assert.NoError(t, err, "email %q", tc.email)
		} else {
			require.Error(t, err, "email %q", tc.email)
			assert.Contains(t, err.Error(), "Invalid email format for author_email.")
		}
	}
}

func TestValidateReview_RatingRangeAndCoercion(t *testing.T) {
	cases := []struct {
		rating any
		valid  bool
	}{
		{1, true},
		{5, true},
		{3.5, true},
		{"4", true},
		{0, false},
		{6, false},
		{"abc", false},
	}

	for _, tc := range cases {
		params := validParams()
		params["rating"] = tc.rating

		err := ValidateReview(params, false)
		if tc.valid {
			assert.NoError(t, err, "rating %v", tc.rating)
		} else {
			require.Error(t, err, "rating %v", tc.rating)
			assert.Contains(t, err.Error(), "Rating must be a number between 1 and 5.")
		}
	}
}

func TestCreateReview_Defaults(t *testing.T) {
	review, err := CreateReview(validParams())

	require.NoError(t, err)
	assert.NotEmpty(t, review.ID)
	assert.Equal(t, StatusPending, review.Status)
	assert.Equal(t, review.CreatedAt, review.UpdatedAt)

	created, err := time.Parse(time.RFC3339, review.CreatedAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), created, 5*time.Second)
}

func TestCreateReview_KeepsExplicitStatus(t *testing.T) {
	params := validParams()
	params["status"] = "approved"

	review, err := CreateReview(params)

	require.NoError(t, err)
	assert.Equal(t, "approved", review.Status)
}

func TestCreateReview_TruncatesFractionalRating(t *testing.T) {
	params := validParams()
	params["rating"] = 4.9

	review, err := CreateReview(params)

	require.NoError(t, err)
	assert.Equal(t, 4, review.Rating)
}

func TestCreateReview_RejectsInvalidInput(t *testing.T) {
	params := validParams()
	delete(params, "sku")

	review, err := CreateReview(params)

	assert.Nil(t, review)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required field: sku")
}

func TestUpdateReview_PatchesOnlyNamedFields(t *testing.T) {
	existing, err := CreateReview(validParams())
	require.NoError(t, err)

	updated, err := UpdateReview(existing, map[string]any{"title": "Even better"})

	require.NoError(t, err)
	assert.Equal(t, "Even better", updated.Title)
	assert.Equal(t, existing.ID, updated.ID)
	assert.Equal(t, existing.SKU, updated.SKU)
	assert.Equal(t, existing.CreatedAt, updated.CreatedAt)
	// The input record is never mutated.
	assert.Equal(t, "Great", existing.Title)
}

func TestUpdateReview_IgnoresImmutableKeys(t *testing.T) {
	existing, err := CreateReview(validParams())
	require.NoError(t, err)

	updated, err := UpdateReview(existing, map[string]any{
		"id":         "attacker-chosen",
		"created_at": "1999-01-01T00:00:00Z",
		"status":     "approved",
	})

	require.NoError(t, err)
	assert.Equal(t, existing.ID, updated.ID)
	assert.Equal(t, existing.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "approved", updated.Status)
}

func TestUpdateReview_RejectsInvalidPatchValue(t *testing.T) {
	existing, err := CreateReview(validParams())
	require.NoError(t, err)

	updated, err := UpdateReview(existing, map[string]any{"rating": "abc"})

	assert.Nil(t, updated)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Rating must be a number between 1 and 5.")
}

func TestParseReview_AcceptsDocumentAndJSONText(t *testing.T) {
	existing, err := CreateReview(validParams())
	require.NoError(t, err)

	fromDoc := ParseReview(existing.Document())
	require.NotNil(t, fromDoc)
	assert.Equal(t, existing.ID, fromDoc.ID)

	fromText := ParseReview(`{"sku":"SKU-100","rating":4,"title":"t","text":"x","author":"a","author_email":"a@b.co"}`)
	require.NotNil(t, fromText)
	assert.Equal(t, 4, fromText.Rating)
}

func TestParseReview_ReturnsNilOnGarbage(t *testing.T) {
	assert.Nil(t, ParseReview(nil))
	assert.Nil(t, ParseReview("{not json"))
	assert.Nil(t, ParseReview(42))
	// Structurally valid JSON that fails validation is also unusable.
	assert.Nil(t, ParseReview(`{"rating": 99}`))
}
