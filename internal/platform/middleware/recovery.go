package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medisys/hms/internal/platform/auth"
	"github.com/medisys/hms/internal/platform/telemetry"
)

const stackSize = 4 << 10

// Recovery turns a handler panic into a 500 response. The panic is logged
// with its stack and the caller, and counted per route. http.ErrAbortHandler
// is re-raised so the server can drop the connection.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if e, ok := r.(error); ok && errors.Is(e, http.ErrAbortHandler) {
					panic(r)
				}

				stack := make([]byte, stackSize)
				stack = stack[:runtime.Stack(stack, false)]

				route := c.Path()
				if route == "" {
					route = "unmatched"
				}
				telemetry.PanicsTotal.WithLabelValues(route).Inc()

				rid, _ := c.Get("request_id").(string)
				event := logger.Error().
					Str("request_id", rid).
					Str("method", c.Request().Method).
					Str("route", route).
					Str("panic", fmt.Sprint(r)).
					Bytes("stack", stack)
				if p, ok := auth.PrincipalFromContext(c.Request().Context()); ok {
					event = event.Str("user_id", p.UserID.String())
				}
				event.Msg("panic recovered")

				err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			}()
			return next(c)
		}
	}
}
