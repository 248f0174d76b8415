package shared

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError carries the HTTP status a failed operation should surface with.
// Services return it wrapped in a normal error; the HTTP layer unwraps it
// via GetAppError.
type AppError struct {
	StatusCode int
	Message    string
	Data       interface{}
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(statusCode int, err error, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

func NewBadRequestError(err error, message string) *AppError {
	return newAppError(http.StatusBadRequest, err, message)
}

func NewUnauthorizedError(err error, message string) *AppError {
	return newAppError(http.StatusUnauthorized, err, message)
}

func NewPaymentRequiredError(err error, message string) *AppError {
	return newAppError(http.StatusPaymentRequired, err, message)
}

func NewForbiddenError(err error, message string) *AppError {
	return newAppError(http.StatusForbidden, err, message)
}

func NewNotFoundError(err error, message string) *AppError {
	return newAppError(http.StatusNotFound, err, message)
}

func NewConflictError(err error, message string) *AppError {
	return newAppError(http.StatusConflict, err, message)
}

func NewGoneError(err error, message string) *AppError {
	return newAppError(http.StatusGone, err, message)
}

func NewTooManyRequestsError(err error, message string) *AppError {
	return newAppError(http.StatusTooManyRequests, err, message)
}

func NewInternalError(err error, message string) *AppError {
	return newAppError(http.StatusInternalServerError, err, message)
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
