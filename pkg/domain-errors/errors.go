// Package domainerrors provides coded errors for failures crossing the
// service boundary. Callers branch on the code with CodeOf or errors.As
// rather than string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure for callers.
type Code string

const (
	// CodeConfiguration marks programmer errors: unknown record types,
	// attributes that do not resolve, nil identifiers. Not retryable.
	CodeConfiguration Code = "configuration"

	// CodeTypeMismatch marks a grouping attribute whose declared kind is
	// not groupable.
	CodeTypeMismatch Code = "type_mismatch"

	// CodeStoreFailure marks an underlying store or query failure.
	CodeStoreFailure Code = "store_failure"

	// CodeCommitFailure marks a failed commit; staged changes remain
	// pending in the store and may be retried by the caller.
	CodeCommitFailure Code = "commit_failure"

	CodeNotFound Code = "not_found"
	CodeInternal Code = "internal"
)

// Error couples a code with a message and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error. A nil err
// returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the code from err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
