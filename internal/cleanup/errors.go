package cleanup

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that a referenced record id does not exist.
var ErrNotFound = errors.New("record not found")

// ValidationError reports malformed input (bad id, empty update set,
// unknown operation). Surfaced to HTTP callers as a 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StoreError wraps a failure from the underlying record store. Per-record
// store errors are recovered into the operation's error list; only a store
// that cannot be reached at all aborts a run.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
