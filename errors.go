package romgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/romgo/internal/errs"
)

var (
	// ErrInvalidArgument is returned for bad methods, shapes, mode counts
	// and mutually exclusive options.
	ErrInvalidArgument = errs.ErrInvalidArgument
	// ErrNotFound is returned when an expected artifact or directory is
	// missing.
	ErrNotFound = errs.ErrNotFound
	// ErrAssertion is returned when persisted data is internally
	// inconsistent, e.g. file counts that disagree with the domain count.
	ErrAssertion = errs.ErrAssertion
)

// ErrDimensionMismatch indicates that two sizes that must agree do not,
// e.g. basis rows and spatial size times variable count.
//
// The original underlying error can be accessed via errors.Unwrap. It
// matches ErrInvalidArgument.
type ErrDimensionMismatch struct {
	What     string
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: %s: expected %d, got %d", e.What, e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *errs.DimensionMismatchError
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{What: dm.What, Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	return err
}
