// Package apierror maps service errors onto echo HTTP errors.
package apierror

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medisys/hms/internal/platform/auth"
	"github.com/medisys/hms/internal/platform/db"
	"github.com/medisys/hms/internal/platform/listquery"
	"github.com/medisys/hms/pkg/pagination"
)

// From converts err into an *echo.HTTPError. badRequest lists additional
// sentinels, such as a package's validation error, that map to 400.
func From(err error, badRequest ...error) error {
	if err == nil {
		return nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	switch {
	case errors.Is(err, listquery.ErrInvalidArgument), errors.Is(err, listquery.ErrUnknownField):
		return pagination.HTTPError(err)
	case errors.Is(err, auth.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	case errors.Is(err, db.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, db.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "record already exists")
	case errors.Is(err, db.ErrReference):
		return echo.NewHTTPError(http.StatusBadRequest, "referenced record does not exist")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
}
