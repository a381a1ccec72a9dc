// Package arena provides the fixed-capacity scratch region that layer tensors
// are allocated from. One binding is live at a time: Reset starts a new binding
// and every tensor handed out by the previous one becomes stale.
package arena

import (
	"errors"
	"fmt"
)

// DefaultCapacity is the scratch size of the reference device (12 KiB).
const DefaultCapacity = 12 * 1024

// Alignment of every allocation, in bytes.
const Alignment = 16

const elemSize = 4 // float32

// ErrStale is returned when a tensor from an earlier binding is accessed.
var ErrStale = errors.New("arena: tensor belongs to a released binding")

// AlignedSize rounds n up to the arena alignment.
func AlignedSize(n int) int { return (n + Alignment - 1) &^ (Alignment - 1) }

// exhaustedError reports an allocation that does not fit in the remaining space.
type exhaustedError struct {
	need     int
	capacity int
}

func (e exhaustedError) Error() string {
	return fmt.Sprintf("arena exhausted: need %d bytes, capacity %d", e.need, e.capacity)
}

// ErrExhausted constructs an arena exhaustion error.
func ErrExhausted(need, capacity int) error { return exhaustedError{need: need, capacity: capacity} }

// IsExhausted reports whether err indicates an allocation beyond capacity.
func IsExhausted(err error) bool {
	var e exhaustedError
	return errors.As(err, &e)
}

// Arena is a bump allocator over a single pre-allocated buffer.
// It is not safe for concurrent use; the engine owning it serializes access.
type Arena struct {
	buf        []float32
	capacity   int
	off        int // bytes
	generation uint64
}

// New allocates an arena of capacity bytes (rounded down to the alignment).
func New(capacity int) (*Arena, error) {
	capacity &^= Alignment - 1
	if capacity <= 0 {
		return nil, fmt.Errorf("arena: capacity must be at least %d bytes", Alignment)
	}
	return &Arena{
		buf:      make([]float32, capacity/elemSize),
		capacity: capacity,
	}, nil
}

// Capacity is the total size in bytes.
func (a *Arena) Capacity() int { return a.capacity }

// Used is the number of bytes allocated by the current binding.
func (a *Arena) Used() int { return a.off }

// Generation identifies the current binding.
func (a *Arena) Generation() uint64 { return a.generation }

// Reset releases the current binding. Previously allocated tensors become stale.
func (a *Arena) Reset() {
	a.generation++
	a.off = 0
}

// Alloc reserves a float32 tensor with the given shape in the current binding.
// The returned memory is zeroed.
func (a *Arena) Alloc(dims ...int) (*Tensor, error) {
	n := 1
	for _, d := range dims {
		if d <= 0 {
			return nil, fmt.Errorf("arena: invalid dimension %d in %v", d, dims)
		}
		n *= d
	}
	size := AlignedSize(n * elemSize)
	if a.off+size > a.capacity {
		return nil, ErrExhausted(a.off+size, a.capacity)
	}
	start := a.off / elemSize
	data := a.buf[start : start+n : start+n]
	clear(data)
	a.off += size
	return &Tensor{
		dims:       append([]int(nil), dims...),
		data:       data,
		arena:      a,
		generation: a.generation,
	}, nil
}

// Tensor is a view into the arena valid for the binding that created it.
type Tensor struct {
	dims       []int
	data       []float32
	arena      *Arena
	generation uint64
}

// Dims returns the tensor shape.
func (t *Tensor) Dims() []int { return append([]int(nil), t.dims...) }

// Len is the number of elements.
func (t *Tensor) Len() int { return len(t.data) }

// Valid reports whether the tensor's binding is still live.
func (t *Tensor) Valid() bool { return t.generation == t.arena.generation }

// Data returns the backing elements, or ErrStale once the binding is released.
func (t *Tensor) Data() ([]float32, error) {
	if !t.Valid() {
		return nil, ErrStale
	}
	return t.data, nil
}
