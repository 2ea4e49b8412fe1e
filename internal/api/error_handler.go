package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/3d-marketplace/auth-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to their HTTP status codes.
//   - Logs unexpected errors without leaking details to the client.
//   - Renders {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Unknown paths and methods share one answer.
	if errors.Is(err, echo.ErrNotFound) || errors.Is(err, echo.ErrMethodNotAllowed) {
		return http.StatusNotFound, "endpoint not found"
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			logUnhandled(log, c, err)
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrWrongPassword),
		errors.Is(err, domain.ErrMissingToken):
		return http.StatusUnauthorized, sentinelMessage(err)
	case errors.Is(err, domain.ErrAccountDisabled),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, sentinelMessage(err)
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, domain.ErrUserNotFound.Error()
	case errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, sentinelMessage(err)
	}

	logUnhandled(log, c, err)
	return http.StatusInternalServerError, "internal server error"
}

// sentinelMessage returns the bare sentinel text so wrapped context never
// reaches the client.
func sentinelMessage(err error) string {
	for _, s := range []error{
		domain.ErrInvalidCredentials,
		domain.ErrWrongPassword,
		domain.ErrMissingToken,
		domain.ErrAccountDisabled,
		domain.ErrInvalidToken,
		domain.ErrForbidden,
		domain.ErrUserExists,
		domain.ErrConflict,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}

func logUnhandled(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")
}
