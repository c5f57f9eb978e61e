// Package errors provides standardized error handling for the churn console.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeAPIUnavailable     ErrorCode = "API_UNAVAILABLE"
	ErrCodePredictionFailed   ErrorCode = "PREDICTION_FAILED"
	ErrCodeInvalidResponse    ErrorCode = "INVALID_RESPONSE"
	ErrCodeInvalidForm        ErrorCode = "INVALID_FORM"
	ErrCodeSubmissionInFlight ErrorCode = "SUBMISSION_IN_FLIGHT"
	ErrCodePageNotFound       ErrorCode = "PAGE_NOT_FOUND"
	ErrCodeBatchSizeInvalid   ErrorCode = "BATCH_SIZE_INVALID"
	ErrCodeStoreFailed        ErrorCode = "STORE_FAILED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches another StandardError by code so callers can use errors.Is with
// the sentinel values below.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Sentinels for errors.Is comparisons.
var (
	ErrAPIUnavailable     = &StandardError{Code: ErrCodeAPIUnavailable}
	ErrPredictionFailed   = &StandardError{Code: ErrCodePredictionFailed}
	ErrInvalidResponse    = &StandardError{Code: ErrCodeInvalidResponse}
	ErrInvalidForm        = &StandardError{Code: ErrCodeInvalidForm}
	ErrSubmissionInFlight = &StandardError{Code: ErrCodeSubmissionInFlight}
	ErrPageNotFound       = &StandardError{Code: ErrCodePageNotFound}
	ErrBatchSizeInvalid   = &StandardError{Code: ErrCodeBatchSizeInvalid}
)

// ==========================
// 2. Error Constructors
// ==========================

// NewAPIUnavailableError creates a retryable error for an unreachable or unhealthy API.
func NewAPIUnavailableError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAPIUnavailable,
		Message:   "Prediction API unavailable",
		Details:   fmt.Sprintf("endpoint: %s, error: %s", endpoint, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnexpectedStatusError creates an error for a non-2xx response.
func NewUnexpectedStatusError(code ErrorCode, endpoint string, status int) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   "Unexpected response status",
		Details:   fmt.Sprintf("endpoint: %s, status: %d", endpoint, status),
		Retryable: status >= 500,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

// NewPredictionFailedError creates a retryable prediction transport error.
func NewPredictionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePredictionFailed,
		Message:   "Prediction failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidResponseError creates a non-retryable contract violation error.
func NewInvalidResponseError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidResponse,
		Message:   "Prediction API returned an invalid response",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidFormError creates a non-retryable form validation error.
func NewInvalidFormError(fieldErrors []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidForm,
		Message:   "Form validation failed",
		Details:   strings.Join(fieldErrors, "; "),
		Retryable: false,
		Metadata:  map[string]interface{}{"fields": fieldErrors},
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionInFlightError is returned when a page already has a request outstanding.
func NewSubmissionInFlightError(pageID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionInFlight,
		Message:   "A submission is already in progress",
		Details:   fmt.Sprintf("pageId: %s", pageID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPageNotFoundError creates a non-retryable unknown page error.
func NewPageNotFoundError(pageID string) *StandardError {
	return &StandardError{
		Code:      ErrCodePageNotFound,
		Message:   "Page not found",
		Details:   fmt.Sprintf("pageId: %s", pageID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBatchSizeInvalidError rejects batches outside the accepted size.
func NewBatchSizeInvalidError(size, min, max int) *StandardError {
	return &StandardError{
		Code:      ErrCodeBatchSizeInvalid,
		Message:   "Batch size out of range",
		Details:   fmt.Sprintf("size: %d, allowed: %d-%d", size, min, max),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreFailedError wraps page store failures.
func NewStoreFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreFailed,
		Message:   "Page store operation failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps anything that is not already a StandardError.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandardError unwraps err into a StandardError if one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize always returns a StandardError, wrapping foreign errors as internal.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// IsRetryable reports whether err is a StandardError marked retryable.
func IsRetryable(err error) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Retryable
}

// CodeOf returns the error code of err, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "API") || strings.Contains(codeStr, "PREDICTION") || strings.Contains(codeStr, "RESPONSE"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "FORM") || strings.Contains(codeStr, "BATCH"):
		return "VALIDATION"
	case strings.Contains(codeStr, "SUBMISSION") || strings.Contains(codeStr, "PAGE"):
		return "PAGE"
	case strings.Contains(codeStr, "STORE"):
		return "STORAGE"
	default:
		return "INTERNAL"
	}
}
