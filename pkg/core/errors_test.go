package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestExecutionError_Error(t *testing.T) {
	err := &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "test_error",
		Message:  "test message",
	}

	if got := err.Error(); got != "test message" {
		t.Errorf("Error() = %q, want %q", got, "test message")
	}
}

func TestExecutionError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "test_error",
		Message:  "test message",
		Cause:    cause,
	}

	got := err.Error()
	if !strings.Contains(got, "test message") {
		t.Errorf("Error() = %q, should contain 'test message'", got)
	}
	if !strings.Contains(got, "underlying error") {
		t.Errorf("Error() = %q, should contain 'underlying error'", got)
	}
}

func TestExecutionError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ExecutionError{
		Message: "wrapper",
		Cause:   cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}
}

func TestExecutionError_WithCause(t *testing.T) {
	original := ErrElementNotFound
	cause := errors.New("custom cause")

	newErr := original.WithCause(cause)

	if newErr.Cause != cause {
		t.Error("WithCause() did not set cause")
	}
	if newErr.Code != original.Code {
		t.Error("WithCause() changed code")
	}
	if original.Cause != nil {
		t.Error("WithCause() modified original error")
	}
}

func TestExecutionError_WithMessage(t *testing.T) {
	original := ErrWaitTimeout
	newErr := original.WithMessagef("waited %s", "2s")

	if newErr.Message != "waited 2s" {
		t.Errorf("Message = %q, want 'waited 2s'", newErr.Message)
	}
	if newErr.Code != original.Code {
		t.Error("WithMessage() changed code")
	}
	if original.Message == "waited 2s" {
		t.Error("WithMessage() modified original error")
	}
}

func TestExecutionError_WithDetails(t *testing.T) {
	original := &ExecutionError{
		Code:    "test",
		Message: "test",
		Details: map[string]interface{}{"existing": "value"},
	}

	newErr := original.WithDetails(map[string]interface{}{
		DetailLocator: "css:#button",
		"timeout":     5000,
	})

	if newErr.Detail(DetailLocator) != "css:#button" {
		t.Error("WithDetails() did not add new details")
	}
	if newErr.Detail("existing") != "value" {
		t.Error("WithDetails() did not preserve existing details")
	}
	if _, ok := original.Details[DetailLocator]; ok {
		t.Error("WithDetails() modified original error")
	}
	if (&ExecutionError{}).Detail("missing") != nil {
		t.Error("Detail() on nil map should be nil")
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err      *ExecutionError
		category ErrorCategory
		code     string
	}{
		{ErrUnresolvedParameter, ErrCategoryLocator, "unresolved_parameter"},
		{ErrUnsupportedStrategy, ErrCategoryLocator, "unsupported_strategy"},
		{ErrInvalidLocator, ErrCategoryLocator, "invalid_locator"},
		{ErrElementNotFound, ErrCategoryAssertion, "element_not_found"},
		{ErrStaleElement, ErrCategoryAssertion, "stale_element"},
		{ErrNilElement, ErrCategoryAssertion, "nil_element"},
		{ErrNoSuchAlert, ErrCategoryAssertion, "no_such_alert"},
		{ErrWaitTimeout, ErrCategoryTimeout, "wait_timeout"},
		{ErrPropertyNotFound, ErrCategoryConfig, "property_not_found"},
		{ErrKeyNotFound, ErrCategoryConfig, "key_not_found"},
		{ErrServerUnreachable, ErrCategoryConnection, "server_unreachable"},
		{ErrInvalidConfig, ErrCategoryConfig, "invalid_config"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Category != tt.category {
				t.Errorf("Category = %s, want %s", tt.err.Category, tt.category)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestNewExecutionError(t *testing.T) {
	err := NewExecutionError(ErrCategoryLocator, "custom_error", "custom message")

	if err.Category != ErrCategoryLocator {
		t.Errorf("Category = %s, want %s", err.Category, ErrCategoryLocator)
	}
	if err.Code != "custom_error" {
		t.Errorf("Code = %s, want 'custom_error'", err.Code)
	}
	if err.Message != "custom message" {
		t.Errorf("Message = %s, want 'custom message'", err.Message)
	}
}

func TestExecutionError_ErrorsIs(t *testing.T) {
	cause := errors.New("root cause")
	err := ErrWaitTimeout.WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the cause")
	}
	if !errors.Is(err, ErrWaitTimeout) {
		t.Error("errors.Is() should match a copy by code")
	}
	if errors.Is(err, ErrElementNotFound) {
		t.Error("errors.Is() should not match a different code")
	}

	wrapped := fmt.Errorf("step failed: %w", ErrUnsupportedStrategy.WithMessage("MODEL on android"))
	if !errors.Is(wrapped, ErrUnsupportedStrategy) {
		t.Error("errors.Is() should see through fmt wrapping")
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"not found", ErrElementNotFound.WithMessage("css:#x"), true},
		{"stale", ErrStaleElement, true},
		{"nil element", ErrNilElement, true},
		{"wrapped not found", fmt.Errorf("lookup: %w", ErrElementNotFound), true},
		{"unsupported", ErrUnsupportedStrategy, false},
		{"unresolved", ErrUnresolvedParameter, false},
		{"timeout", ErrWaitTimeout, false},
		{"plain", errors.New("connection reset"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestElapsed(t *testing.T) {
	err := ErrWaitTimeout.WithDetails(map[string]interface{}{DetailElapsed: 2 * time.Second})

	d, ok := Elapsed(fmt.Errorf("wrapped: %w", err))
	if !ok || d != 2*time.Second {
		t.Errorf("Elapsed() = %v, %v; want 2s, true", d, ok)
	}

	if _, ok := Elapsed(errors.New("plain")); ok {
		t.Error("Elapsed() on plain error should report false")
	}
	if _, ok := Elapsed(ErrWaitTimeout); ok {
		t.Error("Elapsed() without detail should report false")
	}
}

func TestCategoryOf(t *testing.T) {
	if got := CategoryOf(ErrWaitTimeout); got != ErrCategoryTimeout {
		t.Errorf("CategoryOf() = %s, want timeout", got)
	}
	if got := CategoryOf(errors.New("x")); got != ErrCategoryNone {
		t.Errorf("CategoryOf() = %s, want none", got)
	}
}
