package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/haitebooks/bookstore-api/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// errorStatus maps a domain error to a response. An empty message means the
// wrapped error text is shown as is.
type errorStatus struct {
	target  error
	code    int
	message string
}

// Token failures all surface as the same 401; which one it was only shows up
// in the debug log.
var errorStatuses = []errorStatus{
	{domain.ErrUserExists, http.StatusBadRequest, ""},
	{domain.ErrEmailExists, http.StatusBadRequest, ""},
	{domain.ErrInvalidInput, http.StatusBadRequest, ""},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, domain.ErrInvalidCredentials.Error()},
	{domain.ErrTokenExpired, http.StatusUnauthorized, domain.ErrUnauthorized.Error()},
	{domain.ErrTokenMalformed, http.StatusUnauthorized, domain.ErrUnauthorized.Error()},
	{domain.ErrUnauthorized, http.StatusUnauthorized, domain.ErrUnauthorized.Error()},
	{domain.ErrForbidden, http.StatusForbidden, domain.ErrForbidden.Error()},
	{domain.ErrUserNotFound, http.StatusNotFound, domain.ErrUserNotFound.Error()},
	{domain.ErrBookNotFound, http.StatusNotFound, domain.ErrBookNotFound.Error()},
	{domain.ErrReviewNotFound, http.StatusNotFound, domain.ErrReviewNotFound.Error()},
}

// NewHTTPErrorHandler renders every error as {"error": "..."}. Errors it does
// not recognise are logged and answered with a bare 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := statusFor(err)
		switch {
		case code == http.StatusInternalServerError:
			log.Error().Err(err).
				Str("method", c.Request().Method).
				Str("route", c.Path()).
				Msg("unhandled error")
		case code == http.StatusUnauthorized:
			log.Debug().Err(err).Str("path", c.Request().URL.Path).Msg("request rejected")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprint(he.Message)
	}
	for _, s := range errorStatuses {
		if !errors.Is(err, s.target) {
			continue
		}
		if s.message == "" {
			return s.code, err.Error()
		}
		return s.code, s.message
	}
	return http.StatusInternalServerError, "internal server error"
}
