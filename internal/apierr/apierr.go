// Package apierr defines the typed errors returned by service-layer
// operations. Every failure a handler reports to a client is one of these;
// anything else is treated as an internal error at the transport boundary.
package apierr

import "net/http"

// Error carries an HTTP status alongside a client-safe message.
type Error struct {
	Status  int    `json:"statusCode"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an Error with an arbitrary status code.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// BadRequest reports a missing or malformed input field.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Conflict reports a uniqueness violation (duplicate username or email).
func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

// NotFound reports a lookup miss.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Unauthorized reports a bad credential or an invalid/mismatched token.
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

// Internal reports an unexpected lower-layer failure.
func Internal(message string) *Error {
	return New(http.StatusInternalServerError, message)
}
