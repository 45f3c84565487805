package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type for better error handling
type ErrorCode string

const (
	// Configuration loading errors
	ErrCodeConfigLoad ErrorCode = "CONFIG_LOAD_FAILED"

	// Pool member validation errors
	ErrCodeInvalidAddress ErrorCode = "INVALID_ADDRESS"
	ErrCodeInvalidName    ErrorCode = "INVALID_NAME"
	ErrCodeInvalidWeight  ErrorCode = "INVALID_WEIGHT"
	ErrCodeInvalidRegion  ErrorCode = "INVALID_REGION"

	// Pool validation errors
	ErrCodeInvalidLbMethod ErrorCode = "INVALID_LB_METHOD"
	ErrCodeInvalidFallback ErrorCode = "INVALID_FALLBACK"
	ErrCodeInvalidMaxAddrs ErrorCode = "INVALID_MAX_ADDRS"
	ErrCodeMissingMembers  ErrorCode = "MISSING_MEMBERS"

	// Monitor errors
	ErrCodeUnknownMonitor       ErrorCode = "UNKNOWN_MONITOR"
	ErrCodeEmptyMonitorParams   ErrorCode = "EMPTY_MONITOR_PARAMS"
	ErrCodeInvalidMonitorParams ErrorCode = "INVALID_MONITOR_PARAMS"
	ErrCodeProbeFailed          ErrorCode = "PROBE_FAILED"
)

// ValidationError is a structured error raised while validating configuration
// or constructing the pool graph. It identifies the offending pool, member
// and field so operators can locate the bad entry without a stack trace.
type ValidationError struct {
	Code    ErrorCode `json:"code"`
	Pool    string    `json:"pool,omitempty"`
	Member  string    `json:"member,omitempty"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	switch {
	case e.Pool != "" && e.Member != "":
		return fmt.Sprintf("[%s] pool %q member %q: %s", e.Code, e.Pool, e.Member, e.Message)
	case e.Pool != "":
		return fmt.Sprintf("[%s] pool %q: %s", e.Code, e.Pool, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying error
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, so callers can use errors.Is with a sentinel
// built from the same code.
func (e *ValidationError) Is(target error) bool {
	if t, ok := target.(*ValidationError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithPool attaches the owning pool's name to the error
func (e *ValidationError) WithPool(pool string) *ValidationError {
	e.Pool = pool
	return e
}

// WithMember attaches the offending member's IP to the error
func (e *ValidationError) WithMember(ip string) *ValidationError {
	e.Member = ip
	return e
}

// WithField attaches the offending field name to the error
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// New creates a new ValidationError
func New(code ErrorCode, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with a ValidationError
func Wrap(err error, code ErrorCode, format string, args ...interface{}) *ValidationError {
	if err == nil {
		return nil
	}
	return &ValidationError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// Code extracts the error code from an error, or an empty code if the error
// is not a ValidationError.
func Code(err error) ErrorCode {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return Code(err) == code
}
