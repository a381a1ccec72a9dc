package engine

import (
	"errors"
	"fmt"

	"nnrunner/internal/arena"
)

// schemaMismatchError signals an artifact compiled for a different schema.
type schemaMismatchError struct {
	name string
	got  uint32
	want uint32
}

func (e schemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch for %s: artifact version %d, supported %d", e.name, e.got, e.want)
}

// IsSchemaMismatch reports whether err indicates an incompatible artifact schema.
func IsSchemaMismatch(err error) bool {
	var e schemaMismatchError
	return errors.As(err, &e)
}

// inputSizeMismatchError signals an input buffer that does not fill the input tensor exactly.
type inputSizeMismatchError struct {
	got  int
	want int
}

func (e inputSizeMismatchError) Error() string {
	return fmt.Sprintf("input size mismatch: got %d values, want %d", e.got, e.want)
}

// ErrInputSizeMismatch constructs an input size mismatch error.
func ErrInputSizeMismatch(got, want int) error { return inputSizeMismatchError{got: got, want: want} }

// IsInputSizeMismatch reports whether err indicates a wrongly sized input.
func IsInputSizeMismatch(err error) bool {
	var e inputSizeMismatchError
	return errors.As(err, &e)
}

// IsArenaExhausted reports whether err indicates the tensors did not fit in the arena.
func IsArenaExhausted(err error) bool { return arena.IsExhausted(err) }

// IsStaleBinding reports whether err indicates use of a layer after the arena was re-bound.
func IsStaleBinding(err error) bool { return errors.Is(err, arena.ErrStale) }
