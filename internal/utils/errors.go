package utils

import (
	"errors"
	"net/http"
)

// AppError carries the HTTP status and the message safe to show a client.
// Err, when set, is the underlying cause and is only logged.
type AppError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewBadRequestError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Message: message}
}

func NewInternalError(message string) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Message: message}
}

func NewUnavailableError(message string) *AppError {
	return &AppError{StatusCode: http.StatusServiceUnavailable, Message: message}
}

// WrapInternal keeps cause for logs while the client only sees message.
func WrapInternal(message string, cause error) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Message: message, Err: cause}
}

// StatusOf maps any error to an HTTP status and client message. Errors that
// are not an *AppError become a generic 500.
func StatusOf(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode, appErr.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}
