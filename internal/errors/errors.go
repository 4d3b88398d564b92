package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
	// ErrCodeInsufficientData indicates too few usable samples remain to fit a model.
	ErrCodeInsufficientData ErrorCode = "insufficient_data"
	// ErrCodeModelFit indicates the forecast model could not be fitted.
	ErrCodeModelFit ErrorCode = "model_fit"
	// ErrCodeJobExecution indicates a batch job failed or panicked.
	ErrCodeJobExecution ErrorCode = "job_execution"
	// ErrCodeDataSource indicates the measurement store could not be reached or queried.
	ErrCodeDataSource ErrorCode = "data_source"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field names the offending field for validation errors, or the job for job_execution errors.
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Shortfall records how many samples were available versus required.
type Shortfall struct {
	Have int
	Need int
}

func (s *Shortfall) Error() string {
	return fmt.Sprintf("have %d samples, need at least %d", s.Have, s.Need)
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: message,
	}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
	}
}

// InsufficientData reports that a cleaned series is too short to model.
func InsufficientData(have, need int) *AppError {
	return &AppError{
		Code:    ErrCodeInsufficientData,
		Message: "insufficient data to fit a model",
		Cause:   &Shortfall{Have: have, Need: need},
	}
}

// ModelFit wraps the reason a forecast model could not be fitted.
func ModelFit(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeModelFit,
		Message: "forecast model fit failed",
		Cause:   cause,
	}
}

// JobExecution reports a failed or panicking batch job.
func JobExecution(name string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeJobExecution,
		Message: fmt.Sprintf("job %s failed", name),
		Cause:   cause,
		Field:   name,
	}
}

// DataSource wraps a connection or query failure of the measurement store.
func DataSource(op string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeDataSource,
		Message: op,
		Cause:   cause,
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool {
	return isCode(err, ErrCodeInternal)
}

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool {
	return isCode(err, ErrCodeTimeout)
}

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool {
	return isCode(err, ErrCodeCanceled)
}

// IsInsufficientData checks if an error is an InsufficientData error.
func IsInsufficientData(err error) bool {
	return isCode(err, ErrCodeInsufficientData)
}

// IsModelFit checks if an error is a ModelFit error.
func IsModelFit(err error) bool {
	return isCode(err, ErrCodeModelFit)
}

// IsJobExecution checks if an error is a JobExecution error.
func IsJobExecution(err error) bool {
	return isCode(err, ErrCodeJobExecution)
}

// IsDataSource checks if an error is a DataSource error.
func IsDataSource(err error) bool {
	return isCode(err, ErrCodeDataSource)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
