package httperror

import (
	"errors"
	"net/http"
)

// Error is an error that knows how it should be rendered over HTTP.
type Error struct {
	Status  int
	Code    string
	Message string
	Details any
	cause   error
}

func New(status int, code, message string, details any) *Error {
	return &Error{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithCause attaches the underlying error. It is logged, never sent to the client.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

func BadRequest(code, message string, details any) *Error {
	return New(http.StatusBadRequest, code, message, details)
}

func NotFound(code, message string, details any) *Error {
	return New(http.StatusNotFound, code, message, details)
}

func MethodNotAllowed(code, message string, details any) *Error {
	return New(http.StatusMethodNotAllowed, code, message, details)
}

func RequestEntityTooLarge(code, message string, details any) *Error {
	return New(http.StatusRequestEntityTooLarge, code, message, details)
}

func InternalServerError(code, message string, details any) *Error {
	return New(http.StatusInternalServerError, code, message, details)
}

// As returns the *Error wrapped in err, if any.
func As(err error) (*Error, bool) {
	var httpErr *Error
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
