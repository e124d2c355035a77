package pagination

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medisys/hms/internal/platform/listquery"
)

func newContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestFromContext_Defaults(t *testing.T) {
	q := FromContext(newContext("/"))

	if q.Page != 1 {
		t.Errorf("expected default page 1, got %d", q.Page)
	}
	if q.PerPage != DefaultPerPage {
		t.Errorf("expected default perPage %d, got %d", DefaultPerPage, q.PerPage)
	}
	if len(q.Filters) != 0 {
		t.Errorf("expected no filters, got %v", q.Filters)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	q := FromContext(newContext("/?page=3&perPage=25&sort=name.desc&search=dupont&role=DOCTOR,ADMIN&hospitalId=h1"))

	if q.Page != 3 || q.PerPage != 25 {
		t.Errorf("expected page 3 perPage 25, got %d %d", q.Page, q.PerPage)
	}
	if q.Sort != "name.desc" || q.Search != "dupont" {
		t.Errorf("unexpected sort/search: %q %q", q.Sort, q.Search)
	}
	want := listquery.Filters{"role": {"DOCTOR", "ADMIN"}, "hospitalId": {"h1"}}
	if !reflect.DeepEqual(q.Filters, want) {
		t.Errorf("expected filters %v, got %v", want, q.Filters)
	}
}

func TestFromContext_SnakeCaseAlias(t *testing.T) {
	q := FromContext(newContext("/?per_page=7"))
	if q.PerPage != 7 {
		t.Errorf("expected perPage 7, got %d", q.PerPage)
	}
	if _, ok := q.Filters["per_page"]; ok {
		t.Error("per_page must not be treated as a filter")
	}
}

func TestFromContext_MaxPerPage(t *testing.T) {
	q := FromContext(newContext("/?perPage=500"))
	if q.PerPage != MaxPerPage {
		t.Errorf("expected perPage capped at %d, got %d", MaxPerPage, q.PerPage)
	}
}

func TestFromContext_ExplicitZeroRejected(t *testing.T) {
	q := FromContext(newContext("/?page=0"))
	if !errors.Is(q.Validate(), listquery.ErrInvalidArgument) {
		t.Errorf("expected page 0 to fail validation, got %+v", q)
	}
}

func TestSetLimits(t *testing.T) {
	saved := CurrentLimits()
	defer func() { limits = saved }()

	SetLimits(Limits{DefaultPerPage: 50, MaxPerPage: 20})
	got := CurrentLimits()
	if got.MaxPerPage != 20 || got.DefaultPerPage != 20 {
		t.Errorf("expected default clamped to max, got %+v", got)
	}

	q := FromContext(newContext("/?perPage=30"))
	if q.PerPage != 20 {
		t.Errorf("expected perPage 20, got %d", q.PerPage)
	}
}

func TestNewResponse(t *testing.T) {
	p := &listquery.Page[string]{Items: []string{"a", "b", "c", "d", "e"}, Total: 25}

	r := NewResponse(p, listquery.Query{Page: 3, PerPage: 10})
	if r.PageCount != 3 {
		t.Errorf("expected 3 pages, got %d", r.PageCount)
	}
	if r.HasMore {
		t.Error("last page should not have more")
	}

	r = NewResponse(p, listquery.Query{Page: 1, PerPage: 10})
	if !r.HasMore {
		t.Error("first page should have more")
	}
	if r.Total != 25 || r.Page != 1 || r.PerPage != 10 {
		t.Errorf("unexpected response: %+v", r)
	}

	r = NewResponse(&listquery.Page[string]{Items: []string{}, Total: 25}, listquery.Query{Page: math.MaxInt / 10, PerPage: 10})
	if r.HasMore {
		t.Error("a page far past the end should not have more")
	}
}

func TestHTTPError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: page must be >= 1", listquery.ErrInvalidArgument), http.StatusBadRequest},
		{&listquery.FieldError{Field: "salary", Reason: "not a field of user"}, http.StatusBadRequest},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		var he *echo.HTTPError
		if !errors.As(HTTPError(tt.err), &he) {
			t.Fatalf("expected echo.HTTPError for %v", tt.err)
		}
		if he.Code != tt.code {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.code, he.Code)
		}
	}
}
