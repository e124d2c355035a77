package pagination

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medisys/hms/internal/platform/listquery"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Reserved lists the query parameters that are not filters.
var Reserved = []string{"page", "perPage", "per_page", "sort", "search"}

// Limits bounds the page size accepted from clients.
type Limits struct {
	DefaultPerPage int
	MaxPerPage     int
}

var limits = Limits{DefaultPerPage: DefaultPerPage, MaxPerPage: MaxPerPage}

// SetLimits overrides the package defaults. Non-positive values keep the
// current setting.
func SetLimits(l Limits) {
	if l.DefaultPerPage > 0 {
		limits.DefaultPerPage = l.DefaultPerPage
	}
	if l.MaxPerPage > 0 {
		limits.MaxPerPage = l.MaxPerPage
	}
	if limits.DefaultPerPage > limits.MaxPerPage {
		limits.DefaultPerPage = limits.MaxPerPage
	}
}

// CurrentLimits returns the limits in effect.
func CurrentLimits() Limits { return limits }

// FromContext extracts a list query from the echo context. Missing or
// unparsable page and perPage fall back to defaults; perPage is clamped to
// the configured maximum. Explicit values below 1 are passed through so the
// list pipeline rejects them. Every other parameter becomes a filter.
func FromContext(c echo.Context) listquery.Query {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil {
		page = 1
	}

	raw := c.QueryParam("perPage")
	if raw == "" {
		raw = c.QueryParam("per_page")
	}
	perPage, err := strconv.Atoi(raw)
	if err != nil {
		perPage = limits.DefaultPerPage
	}
	if perPage > limits.MaxPerPage {
		perPage = limits.MaxPerPage
	}

	return listquery.Query{
		Page:    page,
		PerPage: perPage,
		Sort:    c.QueryParam("sort"),
		Search:  c.QueryParam("search"),
		Filters: listquery.FromValues(c.QueryParams(), Reserved...),
	}
}

// Response wraps a paginated API response.
type Response struct {
	Data      interface{} `json:"data"`
	Total     int         `json:"total"`
	Page      int         `json:"page"`
	PerPage   int         `json:"perPage"`
	PageCount int         `json:"pageCount"`
	HasMore   bool        `json:"hasMore"`
}

// NewResponse renders a page for the query that produced it.
func NewResponse[T any](p *listquery.Page[T], q listquery.Query) *Response {
	return &Response{
		Data:      p.Items,
		Total:     p.Total,
		Page:      q.Page,
		PerPage:   q.PerPage,
		PageCount: p.PageCount(q.PerPage),
		HasMore:   q.Offset() < p.Total-q.PerPage,
	}
}

// HTTPError maps list errors to HTTP errors: bad paging or field names are
// the client's fault, anything else is a server error.
func HTTPError(err error) error {
	var fe *listquery.FieldError
	switch {
	case errors.As(err, &fe):
		return echo.NewHTTPError(http.StatusBadRequest, fe.Error())
	case errors.Is(err, listquery.ErrInvalidArgument), errors.Is(err, listquery.ErrUnknownField):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list records")
	}
}
