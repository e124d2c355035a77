// Package listquery implements the paginated list pipeline shared by every
// entity repository: filter normalization, predicate construction, sort
// resolution, concurrent count/fetch pagination and row shaping.
package listquery

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidArgument is returned for malformed pagination input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnknownField is returned when a filter or sort names a field the
	// entity schema does not expose and the schema policy is Strict.
	ErrUnknownField = errors.New("unknown field")
)

// FieldError reports a rejected filter or sort field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrUnknownField, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrUnknownField }

// Query is the caller-supplied description of one page of a list.
// It is built per request and never persisted.
type Query struct {
	Page    int
	PerPage int
	Sort    string
	Search  string
	Filters Filters
}

// Validate checks the pagination invariants page >= 1 and perPage >= 1,
// and that the page offset fits in an int.
func (q Query) Validate() error {
	if q.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidArgument, q.Page)
	}
	if q.PerPage < 1 {
		return fmt.Errorf("%w: per_page must be >= 1, got %d", ErrInvalidArgument, q.PerPage)
	}
	if q.Page-1 > math.MaxInt/q.PerPage {
		return fmt.Errorf("%w: page %d is out of range", ErrInvalidArgument, q.Page)
	}
	return nil
}

// Offset returns the number of rows skipped before this page.
func (q Query) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PerPage
}

// Page is one page of results plus the total number of matching rows.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// PageCount returns ceil(total / perPage).
func (p *Page[T]) PageCount(perPage int) int {
	if perPage < 1 || p.Total <= 0 {
		return 0
	}
	return (p.Total + perPage - 1) / perPage
}
