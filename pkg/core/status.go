package core

// ScenarioStatus represents the execution status of a scenario
type ScenarioStatus int

const (
	StatusPending ScenarioStatus = iota // Not yet started
	StatusRunning                       // Currently executing
	StatusPassed                        // Completed successfully
	StatusFailed                        // Assertion failed (element missing, wait timed out)
	StatusErrored                       // Unexpected error (bad locator, driver failure)
	StatusSkipped                       // Never picked up (runner cancelled)
)

// String returns the string representation of ScenarioStatus
func (s ScenarioStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "errored"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the status is a final state
func (s ScenarioStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusErrored, StatusSkipped:
		return true
	default:
		return false
	}
}

// StatusFor classifies the error returned by a scenario.
func StatusFor(err error) ScenarioStatus {
	if err == nil {
		return StatusPassed
	}
	switch CategoryOf(err) {
	case ErrCategoryAssertion, ErrCategoryTimeout:
		return StatusFailed
	default:
		return StatusErrored
	}
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryAssertion                       // Element not found, stale element, missing alert
	ErrCategoryTimeout                         // Wait condition timed out
	ErrCategoryConnection                      // Driver/server connection lost
	ErrCategoryLocator                         // Bad parameter, strategy/platform mismatch, malformed locator
	ErrCategoryConfig                          // Invalid configuration, missing property or saved value
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryLocator:
		return "locator"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}
