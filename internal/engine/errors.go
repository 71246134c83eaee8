package engine

import (
	"errors"
	"fmt"
)

// StateError represents a save blob the engine refused to restore.
//
// Simulation commands never return errors; only restore/import and
// persistence surface failures. StateError carries a code so callers can
// branch without string matching.
type StateError struct {
	// Code identifies the error category.
	Code StateErrorCode

	// Message is a human-readable description.
	Message string

	// Field names the offending save field, if any.
	Field string

	// Err is the underlying cause (JSON syntax error, etc.).
	Err error
}

// StateErrorCode categorizes state errors.
type StateErrorCode string

const (
	// ErrCodeMalformedSave indicates the blob is not valid JSON for State.
	ErrCodeMalformedSave StateErrorCode = "MALFORMED_SAVE"

	// ErrCodeInvalidField indicates a field value outside its domain.
	ErrCodeInvalidField StateErrorCode = "INVALID_FIELD"

	// ErrCodePersist indicates the persister failed to store a blob.
	ErrCodePersist StateErrorCode = "PERSIST_FAILED"
)

// ErrMalformedSave is matched by errors.Is for every restore failure.
var ErrMalformedSave = errors.New("malformed save")

// Error implements the error interface.
func (e *StateError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field=%s)", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *StateError) Unwrap() error {
	return e.Err
}

// Is reports restore failures as ErrMalformedSave.
func (e *StateError) Is(target error) bool {
	return target == ErrMalformedSave && e.Code != ErrCodePersist
}

// IsMalformedSave returns true if err is a restore failure.
// Uses errors.As to handle wrapped errors.
func IsMalformedSave(err error) bool {
	var se *StateError
	if errors.As(err, &se) {
		return se.Code == ErrCodeMalformedSave || se.Code == ErrCodeInvalidField
	}
	return false
}

func newMalformedError(err error) *StateError {
	return &StateError{
		Code:    ErrCodeMalformedSave,
		Message: "save blob is not a valid state snapshot",
		Err:     err,
	}
}

func newFieldError(field, format string, args ...any) *StateError {
	return &StateError{
		Code:    ErrCodeInvalidField,
		Message: fmt.Sprintf(format, args...),
		Field:   field,
	}
}

func newPersistError(err error) *StateError {
	return &StateError{
		Code:    ErrCodePersist,
		Message: "persist save blob",
		Err:     err,
	}
}
