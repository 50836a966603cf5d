package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aymen-fh/bmo-care/internal/api/handler"
	"github.com/aymen-fh/bmo-care/internal/core/domain"
	"github.com/aymen-fh/bmo-care/internal/web"
)

// jsonError is the envelope XHR callers receive, matching the shape the
// backend itself uses so client code can treat both uniformly.
type jsonError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the error page for browsers and a JSON envelope for XHR.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)

		if handler.WantsJSON(c) {
			_ = c.JSON(code, jsonError{Message: msg})
			return
		}

		if renderErr := c.Render(code, "error.html", web.Page{
			Title:   http.StatusText(code),
			Status:  code,
			Message: msg,
		}); renderErr != nil {
			_ = c.String(code, msg)
		}
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from the router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusNotFound {
			return he.Code, "The page you are looking for does not exist."
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, "The server is temporarily unavailable. Please try again shortly."
	case errors.Is(err, domain.ErrTokenRejected), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Authentication is required."
	case errors.Is(err, domain.ErrRoleNotPermitted):
		return http.StatusForbidden, "You do not have permission to access this page."
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "Something went wrong. Please try again."
}
