// Package handlers exposes the marketplace over HTTP. Handlers stay thin:
// they parse input, resolve the caller, call one service operation, and map
// the outcome onto the response envelope.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v5"

	"event-market/internal/status"
)

// Envelope is the uniform response shape for success and failure.
type Envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func success(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, Envelope{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// fail translates a taxonomy error into the matching HTTP status. Internal
// causes are logged but never leaked to the caller.
func fail(c echo.Context, message string, err error) error {
	kind := status.KindOf(err)

	code := http.StatusInternalServerError
	switch kind {
	case status.KindValidation:
		code = http.StatusUnprocessableEntity
	case status.KindNotFound:
		code = http.StatusNotFound
	case status.KindInvalidState:
		code = http.StatusBadRequest
	case status.KindConflict:
		code = http.StatusConflict
	case status.KindExternal:
		code = http.StatusBadGateway
	}

	envelope := Envelope{
		Status:  "error",
		Message: message,
		Error:   err.Error(),
	}

	var serr *status.Error
	if errors.As(err, &serr) {
		envelope.Fields = serr.Fields
		if kind == status.KindInternal {
			slog.Error("internal error", "path", c.Request().URL.Path, "error", err)
			envelope.Error = "internal error"
		}
	} else {
		slog.Error("unclassified error", "path", c.Request().URL.Path, "error", err)
		envelope.Error = "internal error"
	}

	return c.JSON(code, envelope)
}
