package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the resource is in a state that does not allow the operation.
var ErrConflict = errors.New("resource state conflict")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// ErrNotConfigured indicates a required configuration entry (e.g. a withholding
// tax rate) is missing. Rate resolution fails closed with this error rather
// than defaulting to zero, because a silent zero would mask missing
// configuration as a tax exemption.
var ErrNotConfigured = errors.New("required configuration missing")

// ErrAlreadyProcessed indicates an idempotency guard fired: the payment already
// carries the batch reference or is already fully paid. Callers treat this as
// a silent skip, not a failure.
var ErrAlreadyProcessed = errors.New("payment already processed for this batch")

// ErrUndoUnavailable indicates no matching completed, not-yet-undone snapshot
// exists for the requested batch.
var ErrUndoUnavailable = errors.New("undo unavailable for batch")

// AppError carries a status code alongside a message and a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
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

// NewAppError creates a new AppError wrapping an underlying cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that matches ErrNotFound via errors.Is.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
