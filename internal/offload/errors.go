package offload

import (
	"errors"
	"fmt"

	"nnrunner/internal/engine"
	"nnrunner/internal/registry"
)

// invalidDepthError signals a requested depth outside [0, N-1].
type invalidDepthError struct {
	depth  int
	layers int
}

func (e invalidDepthError) Error() string {
	return fmt.Sprintf("invalid depth %d: must be in [0, %d]", e.depth, e.layers-1)
}

// ErrInvalidDepth constructs an invalid depth error.
func ErrInvalidDepth(depth, layers int) error { return invalidDepthError{depth: depth, layers: layers} }

// IsInvalidDepth reports whether err indicates an out-of-range offloading index.
func IsInvalidDepth(err error) bool {
	var e invalidDepthError
	return errors.As(err, &e)
}

// sessionBusyError signals that another session holds the engine.
type sessionBusyError struct{ active uint64 }

func (e sessionBusyError) Error() string {
	return fmt.Sprintf("session busy: session %d is running", e.active)
}

// ErrSessionBusy constructs a session busy error naming the running session.
func ErrSessionBusy(active uint64) error { return sessionBusyError{active: active} }

// IsSessionBusy reports whether err indicates a rejected concurrent Execute.
func IsSessionBusy(err error) bool {
	var e sessionBusyError
	return errors.As(err, &e)
}

// IsUnknownLayer reports whether a layer could not be resolved.
func IsUnknownLayer(err error) bool { return registry.IsUnknownLayer(err) }

// IsSchemaMismatch reports whether a layer artifact had an unsupported schema.
func IsSchemaMismatch(err error) bool { return engine.IsSchemaMismatch(err) }

// IsArenaExhausted reports whether a layer did not fit in the arena.
func IsArenaExhausted(err error) bool { return engine.IsArenaExhausted(err) }

// IsInputSizeMismatch reports whether the session input did not match a layer's input tensor.
func IsInputSizeMismatch(err error) bool { return engine.IsInputSizeMismatch(err) }

// ErrorKind classifies err into the session error taxonomy. Unclassified
// errors map to "internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsInvalidDepth(err):
		return "invalid_depth"
	case IsSessionBusy(err):
		return "session_busy"
	case IsUnknownLayer(err):
		return "unknown_layer"
	case IsSchemaMismatch(err):
		return "schema_mismatch"
	case IsArenaExhausted(err):
		return "arena_exhausted"
	case IsInputSizeMismatch(err):
		return "input_size_mismatch"
	default:
		return "internal"
	}
}
