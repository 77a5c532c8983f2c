package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"prism-todo/prism-api/domain"
)

// writeError maps domain errors to HTTP status codes. Anything that is not a
// validation or not-found error is reported as a store failure.
func writeError(c echo.Context, err error) error {
	var validationErr domain.ValidationError
	var notFoundErr domain.NotFoundError
	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: validationErr.Error()})
	case errors.As(err, &notFoundErr):
		return c.JSON(http.StatusNotFound, errorResponse{Error: notFoundErr.Error()})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// httpErrorHandler renders router and middleware errors (unknown route,
// method not allowed) with the same body shape as handler errors.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = http.StatusText(code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errorResponse{Error: msg})
	}
	if err != nil {
		c.Logger().Error(err)
	}
}
