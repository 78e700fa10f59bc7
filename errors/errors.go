// Package errors provides structured error types for the edges of the merge
// engine: decoding, configuration, storage and service orchestration.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents the type of error that occurred
type ErrorCode string

const (
	ErrCodeStorageFailure    ErrorCode = "STORAGE_FAILURE"
	ErrCodeConflictFailure   ErrorCode = "CONFLICT_FAILURE"
	ErrCodeValidationFailure ErrorCode = "VALIDATION_FAILURE"
	ErrCodeCodecFailure      ErrorCode = "CODEC_FAILURE"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
)

// Kind classifies an error for callers that branch on it.
type Kind string

const (
	KindUnknown  Kind = ""
	KindInvalid  Kind = "invalid"
	KindNotFound Kind = "not_found"
	KindInternal Kind = "internal"
	KindConflict Kind = "conflict"
)

// Operation represents the operation during which an error occurred
type Operation string

const (
	OpMerge     Operation = "merge"
	OpReconcile Operation = "reconcile"
	OpEncode    Operation = "encode"
	OpDecode    Operation = "decode"
	OpStore     Operation = "store"
	OpLoad      Operation = "load"
	OpConfig    Operation = "config"
	OpClose     Operation = "close"
)

// MergeError represents an error raised around a merge
type MergeError struct {
	// Operation during which the error occurred
	Op Operation

	// Component that generated the error (e.g., "storage/sqlite", "codec")
	Component string

	// Kind of failure
	Kind Kind

	// Underlying error
	Err error

	// Whether the operation can be retried
	Retryable bool

	// Error code for the error type
	Code ErrorCode

	// Metadata for additional context
	Metadata map[string]interface{}
}

func (e *MergeError) Error() string {
	var msg string
	if e.Component != "" {
		msg = fmt.Sprintf("%s operation failed in %s component", e.Op, e.Component)
	} else {
		msg = fmt.Sprintf("%s operation failed", e.Op)
	}

	if e.Code != "" {
		msg += fmt.Sprintf(" [%s]", e.Code)
	}

	return msg + fmt.Sprintf(": %v", e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new storage-related MergeError
func NewStorageError(op Operation, cause error) *MergeError {
	return &MergeError{
		Code:      ErrCodeStorageFailure,
		Op:        op,
		Component: "store",
		Kind:      KindInternal,
		Err:       cause,
		Retryable: true,
	}
}

// NewConflictError creates a new conflict-related MergeError
func NewConflictError(op Operation, cause error) *MergeError {
	return &MergeError{
		Code:      ErrCodeConflictFailure,
		Op:        op,
		Component: "merge",
		Kind:      KindConflict,
		Err:       cause,
		Retryable: false,
	}
}

// NewValidationError creates a new validation-related MergeError
func NewValidationError(op Operation, cause error) *MergeError {
	return &MergeError{
		Code:      ErrCodeValidationFailure,
		Op:        op,
		Kind:      KindInvalid,
		Err:       cause,
		Retryable: false,
	}
}

// NewCodecError creates a new encoding/decoding MergeError
func NewCodecError(op Operation, cause error) *MergeError {
	return &MergeError{
		Code:      ErrCodeCodecFailure,
		Op:        op,
		Component: "codec",
		Kind:      KindInvalid,
		Err:       cause,
	}
}

// NewNotFoundError creates a MergeError for a missing note or record
func NewNotFoundError(op Operation, component string, cause error) *MergeError {
	return &MergeError{
		Code:      ErrCodeNotFound,
		Op:        op,
		Component: component,
		Kind:      KindNotFound,
		Err:       cause,
	}
}

// New creates a new MergeError
func New(op Operation, err error) *MergeError {
	return &MergeError{
		Op:  op,
		Err: err,
	}
}

// NewWithComponent creates a new MergeError with component information
func NewWithComponent(op Operation, component string, err error) *MergeError {
	return &MergeError{
		Op:        op,
		Component: component,
		Err:       err,
	}
}

// NewRetryable creates a new retryable MergeError
func NewRetryable(op Operation, err error) *MergeError {
	return &MergeError{
		Op:        op,
		Err:       err,
		Retryable: true,
	}
}

// Op is the builder argument type E uses for an operation name.
type Op string

// Component is the builder argument type E uses for a component name.
type Component string

// E builds a MergeError from loosely typed arguments: Op / Operation,
// Component, Kind, ErrorCode, error, and string (used as the message when no
// error is given, otherwise appended as a detail).
func E(args ...interface{}) error {
	e := &MergeError{}
	var details []string
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = Operation(a)
		case Operation:
			e.Op = a
		case Component:
			e.Component = string(a)
		case Kind:
			e.Kind = a
		case ErrorCode:
			e.Code = a
		case error:
			e.Err = a
		case string:
			details = append(details, a)
		}
	}
	if e.Err == nil {
		e.Err = errors.New(strings.Join(details, "; "))
	} else if len(details) > 0 {
		e.Err = fmt.Errorf("%w (%s)", e.Err, strings.Join(details, "; "))
	}
	return e
}

// IsRetryable checks if an error is a retryable MergeError
func IsRetryable(err error) bool {
	var mergeErr *MergeError
	if errors.As(err, &mergeErr) {
		return mergeErr.Retryable
	}
	return false
}

// KindOf returns the Kind of the outermost MergeError in err's chain that
// carries one.
func KindOf(err error) Kind {
	for err != nil {
		var mergeErr *MergeError
		if !errors.As(err, &mergeErr) {
			return KindUnknown
		}
		if mergeErr.Kind != KindUnknown {
			return mergeErr.Kind
		}
		err = mergeErr.Err
	}
	return KindUnknown
}

// IsNotFound reports whether err is a not-found MergeError.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
