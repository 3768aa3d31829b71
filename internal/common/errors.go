package common

import (
	"errors"
	"net/http"
)

// Error codes shared across the API surface.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeConflict   = "CONFLICT"
	CodeInternal   = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// ValidationError marks caller input as structurally invalid. The operation
// has not touched any state when this is returned.
func ValidationError(message string) *AppError {
	return NewAppError(CodeValidation, message, http.StatusBadRequest, nil)
}

// NotFoundError marks a referenced entity as absent from the backing store.
func NotFoundError(message string) *AppError {
	return NewAppError(CodeNotFound, message, http.StatusNotFound, nil)
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// IsNotFound reports whether the error carries the NOT_FOUND code.
func IsNotFound(err error) bool {
	var target *AppError
	if errors.As(err, &target) {
		return target.Code == CodeNotFound
	}
	return false
}
