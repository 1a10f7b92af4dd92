package webutil

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// AppHandler represents a handler function that returns an error.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// MakeHandler adapts an AppHandler to the standard http.HandlerFunc signature.
// It executes the AppHandler and handles any returned error by logging appropriately
// and sending a standardized JSON error response.
func MakeHandler(handler AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		err := handler(ww, r)
		if err == nil {
			return
		}

		var (
			httpErr       *HTTPError
			validationErr *ValidationError
			statusCode    int
			body          ErrorResponse
		)

		switch {
		case errors.As(err, &validationErr):
			statusCode = http.StatusBadRequest
			body = ErrorResponse{Error: msgValidationError, Fields: validationErr.Fields}
			slog.Info("Request validation failed", "path", r.URL.Path, "method", r.Method, "fields", validationErr.Fields)

		case errors.As(err, &httpErr):
			statusCode = httpErr.Code
			body = ErrorResponse{Error: httpErr.Message}
			logLevel := slog.LevelWarn // Treat client errors as warnings server-side
			if statusCode >= 500 {
				logLevel = slog.LevelError
			}
			attrs := []any{"code", httpErr.Code, "msg", httpErr.Message, "path", r.URL.Path, "method", r.Method}
			// Log the underlying cause if present and different from the public message
			if cause := errors.Unwrap(httpErr); cause != nil && cause.Error() != httpErr.Message {
				attrs = append(attrs, "cause", cause)
			}
			slog.Log(r.Context(), logLevel, "Client error response", attrs...)

		case errors.Is(err, sql.ErrNoRows):
			statusCode = http.StatusNotFound
			body = ErrorResponse{Error: msgNotFound}
			slog.Info("Resource not found (sql.ErrNoRows)", "path", r.URL.Path, "method", r.Method, "error", err)

		default:
			statusCode = http.StatusInternalServerError
			body = ErrorResponse{Error: msgInternalServer}
			slog.Error("Unhandled internal error", "path", r.URL.Path, "method", r.Method, "error", err)
		}

		// Cannot send another response once the handler has written one.
		if ww.Status() != 0 {
			slog.Warn("Handler returned error after writing response header",
				"path", r.URL.Path,
				"method", r.Method,
				"error", err,
			)
			return
		}

		RespondWithJSON(ww, statusCode, body)
	}
}
