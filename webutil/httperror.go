package webutil

import "net/http"

const (
	msgNotFound       = "Resource not found"
	msgInternalServer = "Internal Server Error"
)

// HTTPError lets a handler choose the response status. Message goes to the
// client; the wrapped cause only reaches the server log.
type HTTPError struct {
	Code    int
	Message string
	cause   error
}

func (e *HTTPError) Error() string { return e.Message }

func (e *HTTPError) Unwrap() error { return e.cause }

// Wrap returns a copy of e that remembers cause.
func (e *HTTPError) Wrap(cause error) *HTTPError {
	wrapped := *e
	wrapped.cause = cause
	return &wrapped
}

// NewHTTPError builds an HTTPError. An empty message falls back to a generic
// text for the status.
func NewHTTPError(code int, message string) *HTTPError {
	if message == "" {
		message = statusMessage(code)
	}
	return &HTTPError{Code: code, Message: message}
}

func ErrBadRequest(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message)
}

func ErrUnauthorized(message string) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message)
}

func ErrNotFound(message string) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message)
}

func statusMessage(code int) string {
	switch code {
	case http.StatusNotFound:
		return msgNotFound
	case http.StatusInternalServerError:
		return msgInternalServer
	default:
		return http.StatusText(code)
	}
}
