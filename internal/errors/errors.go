// Package errors defines stable error codes for all engine failure modes.
// The HTTP boundary maps these codes to status codes; the CLI prints them.
package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ModuleNotFound indicates a named module does not exist under the project root
	ModuleNotFound ErrorCode = "MODULE_NOT_FOUND"
	// OpportunityNotFound indicates a refactoring opportunity id could not be re-located
	OpportunityNotFound ErrorCode = "OPPORTUNITY_NOT_FOUND"
	// UnsupportedRefactoring indicates the opportunity type has no concrete transformation
	UnsupportedRefactoring ErrorCode = "UNSUPPORTED_REFACTORING"
	// NotAutoApplicable indicates an opportunity requires manual confirmation
	NotAutoApplicable ErrorCode = "NOT_AUTO_APPLICABLE"
	// ToolFailed indicates an external tool exited non-zero or produced unparseable output
	ToolFailed ErrorCode = "TOOL_FAILED"
	// TestsFailed indicates the test suite failed after a mutation
	TestsFailed ErrorCode = "TESTS_FAILED"
	// UnsafeState indicates a rollback failed and the tree is left without its safety net
	UnsafeState ErrorCode = "UNSAFE_STATE"
	// ManifestInvalid indicates the package manifest is missing or malformed
	ManifestInvalid ErrorCode = "MANIFEST_INVALID"
	// InvalidInput indicates a request parameter is invalid
	InvalidInput ErrorCode = "INVALID_INPUT"
	// Unauthorized indicates a missing or invalid API token
	Unauthorized ErrorCode = "UNAUTHORIZED"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// EngineError represents an engine error with a stable code and optional details
type EngineError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new EngineError
func New(code ErrorCode, message string) *EngineError {
	return &EngineError{Code: code, Message: message}
}

// Wrap creates a new EngineError wrapping an underlying cause
func Wrap(code ErrorCode, message string, cause error) *EngineError {
	return &EngineError{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *EngineError) WithDetails(details interface{}) *EngineError {
	e.Details = details
	return e
}

// CodeOf extracts the error code from err, or InternalError if err is not an EngineError.
func CodeOf(err error) ErrorCode {
	if ee, ok := err.(*EngineError); ok {
		return ee.Code
	}
	return InternalError
}
