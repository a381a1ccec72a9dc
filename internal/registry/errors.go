package registry

import (
	"errors"
	"fmt"
)

// unknownLayerError reports an index outside the statically known range.
type unknownLayerError struct {
	index int
	count int
}

func (e unknownLayerError) Error() string {
	return fmt.Sprintf("unknown layer %d (registry holds %d layers)", e.index, e.count)
}

// ErrUnknownLayer constructs the error returned by Resolve for out-of-range indices.
func ErrUnknownLayer(index, count int) error { return unknownLayerError{index: index, count: count} }

// IsUnknownLayer reports whether err (or anything it wraps) is an unknown layer error.
func IsUnknownLayer(err error) bool {
	var e unknownLayerError
	return errors.As(err, &e)
}

// malformedError reports an artifact that does not follow the binary layout.
type malformedError struct {
	name string
	msg  string
}

func (e malformedError) Error() string { return "malformed artifact " + e.name + ": " + e.msg }

func malformed(name, format string, args ...any) error {
	return malformedError{name: name, msg: fmt.Sprintf(format, args...)}
}

// IsMalformed reports whether err indicates a structurally invalid artifact.
func IsMalformed(err error) bool {
	var e malformedError
	return errors.As(err, &e)
}
