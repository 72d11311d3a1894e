package query

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Defaults(t *testing.T) {
	q := Compile(map[string]any{})

	assert.Empty(t, q.Filter)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.PageSize)
	assert.Equal(t, "created_at", q.SortBy)
	assert.Equal(t, "desc", q.SortDir)
	assert.Equal(t, Descending, q.SortDirection)
	assert.Equal(t, int64(0), q.Skip)
	assert.Equal(t, int64(10), q.Limit)
}

func TestCompile_EscapesRegexMetacharacters(t *testing.T) {
	q := Compile(map[string]any{"sku": "SKU-1.0*"})

	fragment, ok := q.Filter["sku"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, `SKU-1\.0\*`, fragment["$regex"])
	assert.Equal(t, "i", fragment["$options"])
}

func TestCompile_StatusIsAnchoredExactMatch(t *testing.T) {
	q := Compile(map[string]any{"status": "pend(ing"})

	fragment, ok := q.Filter["status"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, `^pend\(ing$`, fragment["$regex"])
	assert.Equal(t, "i", fragment["$options"])
}

func TestCompile_RatingParsesToInteger(t *testing.T) {
	q := Compile(map[string]any{"rating": "4"})
	assert.Equal(t, 4, q.Filter["rating"])

	q = Compile(map[string]any{"rating": 3})
	assert.Equal(t, 3, q.Filter["rating"])
}

func TestCompile_UnparsableRatingProducesNoFragment(t *testing.T) {
	q := Compile(map[string]any{"rating": "abc", "title": "good"})

	_, present := q.Filter["rating"]
	assert.False(t, present)
	assert.Contains(t, q.Filter, "title")
}

func TestCompile_IgnoresUnknownAndEmptyFields(t *testing.T) {
	q := Compile(map[string]any{
		"password": "hunter2",
		"title":    "",
		"author":   nil,
	})

	assert.Empty(t, q.Filter)
}

func TestCompile_PaginationClamping(t *testing.T) {
	q := Compile(map[string]any{"page": 0, "pageSize": -3})
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 1, q.PageSize)

	q = Compile(map[string]any{"page": "abc", "pageSize": "xyz"})
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.PageSize)

	q = Compile(map[string]any{"page": "3", "pageSize": "25"})
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 25, q.PageSize)
	assert.Equal(t, int64(50), q.Skip)
	assert.Equal(t, int64(25), q.Limit)
}

func TestCompile_HugePaginationValuesStayPositive(t *testing.T) {
	q := Compile(map[string]any{"page": "1e300", "pageSize": "10"})
	assert.Equal(t, math.MaxInt32, q.Page)
	assert.GreaterOrEqual(t, q.Page, 1)
	assert.GreaterOrEqual(t, q.Skip, int64(0))
	assert.Equal(t, int64(10), q.Limit)

	q = Compile(map[string]any{"page": "2", "pageSize": "1e300"})
	assert.Equal(t, math.MaxInt32, q.PageSize)
	assert.GreaterOrEqual(t, q.Skip, int64(0))
	assert.Equal(t, int64(math.MaxInt32), q.Limit)
}

func TestCompile_SortFieldAllowList(t *testing.T) {
	q := Compile(map[string]any{"sortBy": "author_email"})
	assert.Equal(t, "created_at", q.SortBy)

	q = Compile(map[string]any{"sortBy": "rating", "sortDir": "asc"})
	assert.Equal(t, "rating", q.SortBy)
	assert.Equal(t, "asc", q.SortDir)
	assert.Equal(t, Ascending, q.SortDirection)

	q = Compile(map[string]any{"sortDir": "sideways"})
	assert.Equal(t, "desc", q.SortDir)
	assert.Equal(t, Descending, q.SortDirection)
}
