package core

import (
	"errors"
	"fmt"
	"time"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: element_not_found, wait_timeout, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an ExecutionError with the same code.
// Predefined errors are templates, so callers match copies by code.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithMessagef is WithMessage with formatting.
func (e *ExecutionError) WithMessagef(format string, args ...interface{}) *ExecutionError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Detail returns a single detail value, or nil.
func (e *ExecutionError) Detail(key string) interface{} {
	if e.Details == nil {
		return nil
	}
	return e.Details[key]
}

// Detail keys used by the wait engine.
const (
	DetailElapsed   = "elapsed"
	DetailCondition = "condition"
	DetailAttempts  = "attempts"
	DetailLocator   = "locator"
	DetailPlatform  = "platform"
)

// Predefined errors (like Appium W3C error codes)
var (
	// Locator errors
	ErrUnresolvedParameter = &ExecutionError{
		Category: ErrCategoryLocator,
		Code:     "unresolved_parameter",
		Message:  "locator parameter could not be resolved",
	}
	ErrUnsupportedStrategy = &ExecutionError{
		Category: ErrCategoryLocator,
		Code:     "unsupported_strategy",
		Message:  "locator strategy is not supported on the active platform",
	}
	ErrInvalidLocator = &ExecutionError{
		Category: ErrCategoryLocator,
		Code:     "invalid_locator",
		Message:  "locator is malformed",
	}

	// Assertion errors
	ErrElementNotFound = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "element_not_found",
		Message:  "element not found",
	}
	ErrStaleElement = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "stale_element",
		Message:  "element is no longer attached to the page",
	}
	ErrNilElement = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "nil_element",
		Message:  "lookup returned no element reference",
	}
	ErrNoSuchAlert = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "no_such_alert",
		Message:  "no alert is open",
	}

	// Timeout errors
	ErrWaitTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "wait_timeout",
		Message:  "wait condition timed out",
	}

	// Store errors
	ErrPropertyNotFound = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "property_not_found",
		Message:  "property not found",
	}
	ErrKeyNotFound = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "key_not_found",
		Message:  "saved value not found",
	}

	// Connection errors
	ErrServerUnreachable = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "server_unreachable",
		Message:  "could not connect to automation server",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// IsTransient reports whether err is a lookup failure the poll loop may retry:
// element not yet present, stale reference, or a nil element reference.
func IsTransient(err error) bool {
	return errors.Is(err, ErrElementNotFound) ||
		errors.Is(err, ErrStaleElement) ||
		errors.Is(err, ErrNilElement)
}

// Elapsed extracts the elapsed time recorded on a wait error.
func Elapsed(err error) (time.Duration, bool) {
	var ee *ExecutionError
	if !errors.As(err, &ee) {
		return 0, false
	}
	d, ok := ee.Detail(DetailElapsed).(time.Duration)
	return d, ok
}

// CategoryOf returns the category of err, or ErrCategoryNone.
func CategoryOf(err error) ErrorCategory {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Category
	}
	return ErrCategoryNone
}
