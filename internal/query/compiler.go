// Package query compiles an untrusted parameter bag into a store-safe
// filter, sort, and pagination descriptor. Only allow-listed fields may
// filter, and every string value is escaped so caller input can never be
// interpreted as a pattern by the store's matching engine.
package query

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// searchableFields is the closed set of fields a caller may filter on.
var searchableFields = []string{"sku", "rating", "title", "text", "author", "author_email", "status"}

// sortableFields is the closed set of fields a caller may sort by.
var sortableFields = map[string]struct{}{
	"created_at": {},
	"updated_at": {},
	"rating":     {},
	"status":     {},
}

const (
	defaultPage     = 1
	defaultPageSize = 10
	defaultSortBy   = "created_at"

	// Ascending and Descending are the store-level sort direction values.
	Ascending  = 1
	Descending = -1
)

// Query is the compiled, store-safe description of a list operation.
type Query struct {
	Filter        map[string]any
	SortField     string
	SortDirection int
	Skip          int64
	Limit         int64
	Page          int
	PageSize      int

	// Normalized labels echoed back in the response envelope.
	SortBy  string
	SortDir string
}

// Compile maps a parameter bag to a Query. It is pure and deterministic:
// unusable filter fragments are dropped rather than erroring, pagination is
// clamped to sane bounds, and unknown sort fields fall back to created_at.
func Compile(params map[string]any) Query {
	filter := map[string]any{}

	for _, field := range searchableFields {
		value, present := params[field]
		if !present || value == nil {
			continue
		}
		text := stringValue(value)
		if text == "" {
			continue
		}

		switch field {
		case "rating":
			if rating, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
				filter[field] = rating
			}
			// An unparsable rating produces no fragment at all.
		case "status":
			// Anchored, escaped, case-insensitive: exact match semantics.
			filter[field] = map[string]any{
				"$regex":   "^" + regexp.QuoteMeta(text) + "$",
				"$options": "i",
			}
		default:
			// Escaped, case-insensitive substring match.
			filter[field] = map[string]any{
				"$regex":   regexp.QuoteMeta(text),
				"$options": "i",
			}
		}
	}

	page := clampedInt(params["page"], defaultPage)
	pageSize := clampedInt(params["pageSize"], defaultPageSize)

	sortBy := defaultSortBy
	if s, ok := params["sortBy"].(string); ok {
		if _, allowed := sortableFields[s]; allowed {
			sortBy = s
		}
	}

	direction := Descending
	sortDir := "desc"
	if s, ok := params["sortDir"].(string); ok && s == "asc" {
		direction = Ascending
		sortDir = "asc"
	}

	return Query{
		Filter:        filter,
		SortField:     sortBy,
		SortDirection: direction,
		Skip:          int64(page-1) * int64(pageSize),
		Limit:         int64(pageSize),
		Page:          page,
		PageSize:      pageSize,
		SortBy:        sortBy,
		SortDir:       sortDir,
	}
}

// clampedInt coerces a page/pageSize value to a finite integer in
// [1, math.MaxInt32], falling back to def when the value is absent or not
// numeric. The upper clamp keeps a huge float from overflowing the int
// conversion into a negative value.
func clampedInt(value any, def int) int {
	var n float64
	switch v := value.(type) {
	case nil:
		return def
	case int:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case float64:
		n = v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return def
		}
		n = f
	default:
		return def
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return def
	}
	if n < 1 {
		return 1
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

func stringValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
