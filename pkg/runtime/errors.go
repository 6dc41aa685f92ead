package runtime

import (
	"errors"
	"fmt"
)

// ErrorKind classifies execution errors.
type ErrorKind int

const (
	ErrInternal ErrorKind = iota
	ErrTypeMismatch
	ErrArity
	ErrUnresolvedSymbol
	ErrIllegalModuleAccess
	ErrInvalidControl
	ErrConstruction
	ErrImport
	ErrNative
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTypeMismatch:
		return "type_mismatch"
	case ErrArity:
		return "arity"
	case ErrUnresolvedSymbol:
		return "unresolved_symbol"
	case ErrIllegalModuleAccess:
		return "illegal_module_access"
	case ErrInvalidControl:
		return "invalid_control"
	case ErrConstruction:
		return "construction"
	case ErrImport:
		return "import"
	case ErrNative:
		return "native"
	default:
		return "internal"
	}
}

// ExecutionError is the error surfaced for every failed evaluation.
type ExecutionError struct {
	Kind    ErrorKind
	Message string
	// Trace is the formatted stack trace captured where the error was detected.
	Trace string
	Cause error
}

func (e *ExecutionError) Error() string {
	if e.Trace == "" {
		return e.Message
	}
	return e.Message + "\n" + e.Trace
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// HasTrace reports whether a stack trace was captured.
func (e *ExecutionError) HasTrace() bool { return e.Trace != "" }

// NewError creates an untraced execution error, used outside of evaluation.
func NewError(kind ErrorKind, format string, args ...any) *ExecutionError {
	return &ExecutionError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsExecutionError extracts an execution error from a chain.
func AsExecutionError(err error) (*ExecutionError, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr, true
	}
	return nil, false
}

// KindOf returns the kind of an execution error, or ErrInternal.
func KindOf(err error) ErrorKind {
	if execErr, ok := AsExecutionError(err); ok {
		return execErr.Kind
	}
	return ErrInternal
}
