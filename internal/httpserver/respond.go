package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/docshelf/internal/common"
	"github.com/Skotchmaster/docshelf/internal/search"
)

const msgInternal = "Internal server error"

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// statusFor maps an error onto the HTTP status and the message the client
// may see. Anything unrecognized is a 500 with a generic message.
func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			return he.Code, msgInternal
		}
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}

	switch {
	case errors.Is(err, search.ErrSearchDisabled):
		return http.StatusServiceUnavailable, "Search is not configured"
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, common.Message(err)
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized, common.Message(err)
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, common.Message(err)
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, common.Message(err)
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict, common.Message(err)
	}
	return http.StatusInternalServerError, msgInternal
}

// ErrorHandler renders every unhandled error as the JSON failure envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := statusFor(err)
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, errorBody{Success: false, Message: msg})
}

// fail logs a handler failure at the level its status deserves and writes the
// failure envelope.
func fail(c echo.Context, l *slog.Logger, event string, err error) error {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
	} else {
		l.Warn(event, "status", code, "reason", msg)
	}
	return c.JSON(code, errorBody{Success: false, Message: msg})
}
