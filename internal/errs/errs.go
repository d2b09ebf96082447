// Package errs holds the error taxonomy shared by all romgo packages.
//
// Package-level errors wrap one of the sentinels below so callers can classify
// any failure with errors.Is, whichever package produced it.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks bad method names, wrong dimensionality,
	// mismatched shapes and mutually exclusive options.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks missing directories or expected artifact files.
	ErrNotFound = errors.New("not found")

	// ErrAssertion marks internal consistency failures (counts, pairings).
	ErrAssertion = errors.New("assertion failed")
)

// InvalidArgument wraps ErrInvalidArgument with a formatted message.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with a formatted message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Assertion wraps ErrAssertion with a formatted message.
func Assertion(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAssertion, fmt.Sprintf(format, args...))
}

// DimensionMismatchError reports a size that does not match what an
// operation expects. It classifies as ErrInvalidArgument.
type DimensionMismatchError struct {
	What     string
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s dimension mismatch: expected %d, got %d", e.What, e.Expected, e.Actual)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrInvalidArgument }

// Mismatch returns a *DimensionMismatchError.
func Mismatch(what string, expected, actual int) error {
	return &DimensionMismatchError{What: what, Expected: expected, Actual: actual}
}
