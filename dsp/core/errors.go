package core

import (
	"errors"
	"fmt"
)

// Error classes shared by every stage of the transmission chain. Stage
// failures wrap one of these so callers can branch with errors.Is.
var (
	// ErrInvalidInput reports non-binary or otherwise malformed input data.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfiguration reports a parameter outside its valid range,
	// for example a non-positive symbol period or too low a sample rate.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInsufficientSignal reports that clock recovery found too few events
	// to determine a symbol period. It is recoverable.
	ErrInsufficientSignal = errors.New("insufficient signal")

	// ErrNumericDegeneracy reports an operation that would divide by zero,
	// such as peak-normalizing an all-zero waveform.
	ErrNumericDegeneracy = errors.New("numeric degeneracy")
)

// StageError carries the stage name and the offending value alongside one of
// the error classes above.
type StageError struct {
	Stage string
	Field string
	Value any
	Err   error
}

// Error implements error.
func (e *StageError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s = %v", e.Stage, e.Err, e.Field, e.Value)
}

// Unwrap returns the wrapped error class.
func (e *StageError) Unwrap() error { return e.Err }

// NewStageError builds a StageError.
func NewStageError(stage string, err error, field string, value any) error {
	return &StageError{Stage: stage, Field: field, Value: value, Err: err}
}

// StageOf returns the stage recorded in err, or "" when err carries none.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
