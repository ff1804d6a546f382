package web

// errors.go turns engine errors into JSON responses.
//
// The technical error is logged with the request id; the client gets the
// coded message from core.MapError and a status derived from the sentinel.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/synthedata/internal/core"
	"github.com/JonMunkholm/synthedata/internal/geo"
	"github.com/JonMunkholm/synthedata/internal/schema"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`

	// Tables lists the record counts of a linked run that failed part way.
	Tables map[string]int `json:"tables,omitempty"`
}

// statusFor picks the HTTP status of an engine error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, schema.ErrSchemaNotFound), errors.Is(err, core.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnknownErrorProfile),
		errors.Is(err, geo.ErrUnknownContext),
		errors.Is(err, core.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrEmptyParentPool), errors.Is(err, schema.ErrSchemaInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManyJobs):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes its user message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	respondErrorWith(w, r, err, nil)
}

func respondErrorWith(w http.ResponseWriter, r *http.Request, err error, tables map[string]int) {
	status := statusFor(err)
	msg := core.MapError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	// Internal failures may carry connection details; only client errors
	// echo the technical text.
	detail := msg.Message
	if status < http.StatusInternalServerError {
		detail = err.Error()
	}
	writeJSON(w, status, ErrorResponse{
		Error:   detail,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Tables:  tables,
	})
}
