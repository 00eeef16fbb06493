package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types
var (
	ErrNotFound        = errors.New("resource not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrConflict        = errors.New("resource conflict")
	ErrInternal        = errors.New("internal server error")
	ErrValidation      = errors.New("validation error")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenInvalid    = errors.New("invalid token")
	ErrDuplicatePeriod = errors.New("ledger entry already exists for period")
	ErrOutstandingLoan = errors.New("outstanding loan balance")
	ErrStorageConflict = errors.New("concurrent write conflict")
	ErrPeriodClosed    = errors.New("ledger period closed")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Err:        ErrForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

func TokenExpired() *AppError {
	return &AppError{
		Err:        ErrTokenExpired,
		Code:       "TOKEN_EXPIRED",
		Message:    "token has expired",
		StatusCode: http.StatusUnauthorized,
	}
}

func TokenInvalid() *AppError {
	return &AppError{
		Err:        ErrTokenInvalid,
		Code:       "TOKEN_INVALID",
		Message:    "invalid token",
		StatusCode: http.StatusUnauthorized,
	}
}

// Ledger errors

// DuplicatePeriod reports that the employee already has an entry for the period.
// Callers recover by fetching the existing entry.
func DuplicatePeriod(employeeID, period string) *AppError {
	return &AppError{
		Err:        ErrDuplicatePeriod,
		Code:       "DUPLICATE_PERIOD",
		Message:    fmt.Sprintf("ledger entry for employee %s already exists for %s", employeeID, period),
		StatusCode: http.StatusConflict,
		Details:    map[string]string{"employee_id": employeeID, "period": period},
	}
}

// OutstandingLoan rejects a new loan while a balance remains.
func OutstandingLoan(remaining string) *AppError {
	return &AppError{
		Err:        ErrOutstandingLoan,
		Code:       "OUTSTANDING_LOAN",
		Message:    "a new loan cannot be issued while a balance remains",
		StatusCode: http.StatusUnprocessableEntity,
		Details:    map[string]string{"loan_remaining": remaining},
	}
}

// StorageConflict is returned when the database aborts a transaction because of a
// concurrent write. The whole operation is safe to retry.
func StorageConflict() *AppError {
	return &AppError{
		Err:        ErrStorageConflict,
		Code:       "STORAGE_CONFLICT",
		Message:    "concurrent update detected, retry the operation",
		StatusCode: http.StatusConflict,
	}
}

func PeriodClosed() *AppError {
	return &AppError{
		Err:        ErrPeriodClosed,
		Code:       "PERIOD_CLOSED",
		Message:    "ledger period is closed",
		StatusCode: http.StatusConflict,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
