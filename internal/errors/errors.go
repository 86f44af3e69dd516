package errors

import "fmt"

// ErrorCode represents a ClipStash error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrInitFailed     ErrorCode = "INIT_FAILED"   // plugin initialize returned an error
	ErrStageTimeout   ErrorCode = "STAGE_TIMEOUT" // a single hook invocation exceeded its budget
	ErrStageFault     ErrorCode = "STAGE_FAULT"   // a hook returned an error or panicked
	ErrInternal       ErrorCode = "INTERNAL"
)

// ClipError represents a structured error with code and details.
type ClipError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *ClipError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates an error for invalid request parameters.
func NewInvalidRequest(msg string) *ClipError {
	return &ClipError{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}

// NewNotFound creates an error for when a clip cannot be found.
func NewNotFound(identifier string) *ClipError {
	return &ClipError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("clip not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewInitFailed creates an error for a plugin that failed to initialize.
// Reported once at load time; never fatal to the application.
func NewInitFailed(plugin string, cause error) *ClipError {
	msg := fmt.Sprintf("plugin %s failed to initialize", plugin)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &ClipError{
		Code:    ErrInitFailed,
		Message: msg,
		Details: map[string]any{"plugin": plugin},
	}
}

// NewStageTimeout creates an error for a hook invocation that exceeded its
// time budget. Absorbed inside the pipeline: logged, then pass-through.
func NewStageTimeout(plugin, hook string) *ClipError {
	return &ClipError{
		Code:    ErrStageTimeout,
		Message: fmt.Sprintf("plugin %s timed out in %s", plugin, hook),
		Details: map[string]any{"plugin": plugin, "hook": hook},
	}
}

// NewStageFault creates an error for a hook that returned an error or
// panicked. Absorbed inside the pipeline: logged, then pass-through.
func NewStageFault(plugin, hook string, cause error) *ClipError {
	msg := fmt.Sprintf("plugin %s failed in %s", plugin, hook)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &ClipError{
		Code:    ErrStageFault,
		Message: msg,
		Details: map[string]any{"plugin": plugin, "hook": hook},
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *ClipError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ClipError{
		Code:    ErrInternal,
		Message: msg,
	}
}

// Is checks if an error is a ClipError with the given code.
func Is(err error, code ErrorCode) bool {
	if cErr, ok := err.(*ClipError); ok {
		return cErr.Code == code
	}
	return false
}
