package types

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	InternalServiceError ErrorCode = "INTERNAL_SERVICE_ERROR"
	ValidationError      ErrorCode = "VALIDATION_ERROR"
	NotFound             ErrorCode = "NOT_FOUND"
	Forbidden            ErrorCode = "FORBIDDEN"
)

func (e ErrorCode) String() string {
	return string(e)
}

// Error wraps an underlying error with an HTTP-compatible status code and a
// stable error code so that callers (pollers, HTTP handlers) can classify it.
type Error struct {
	Err        error
	StatusCode int
	ErrorCode  ErrorCode
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.ErrorCode.String()
	}
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(statusCode int, errorCode ErrorCode, err error) *Error {
	return &Error{
		Err:        err,
		StatusCode: statusCode,
		ErrorCode:  errorCode,
	}
}

func NewInternalServiceError(err error) *Error {
	return NewError(http.StatusInternalServerError, InternalServiceError, err)
}

func NewValidationFailedError(err error) *Error {
	return NewError(http.StatusBadRequest, ValidationError, err)
}
