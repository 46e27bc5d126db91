package toolcall

import (
	"errors"
	"fmt"
)

// Sentinel errors for the tool-call pipeline. Use errors.Is to check.
var (
	// ErrMalformedCall indicates an extracted span could not be repaired
	// into a JSON object. Malformed calls are dropped, never fatal.
	ErrMalformedCall = errors.New("malformed tool call")
	// ErrUnknownTool indicates the call names a function that is not
	// registered. The call is rejected; sibling calls continue.
	ErrUnknownTool = errors.New("unknown tool")
)

// ValidationError describes why one extracted call was rejected. These are
// collected as advisory messages, not raised.
type ValidationError struct {
	Reason string
	Err    error // wrapped sentinel for errors.Is
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid tool call: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ExecutionError wraps a failure inside a registered callable. It is caught
// per call and surfaced as an assistant-visible message; execution of
// sibling calls continues.
type ExecutionError struct {
	Name string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Name, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
