package engine

import (
	"errors"
	"fmt"
	"time"

	"nnrunner/internal/arena"
	"nnrunner/internal/registry"
)

// Config tunes engine construction. Zero values select the defaults.
type Config struct {
	ArenaBytes    int
	SchemaVersion uint32
}

// Engine binds one layer artifact at a time to its arena and runs it.
// It is not safe for concurrent use.
type Engine struct {
	arena  *arena.Arena
	schema uint32
}

// LoadedLayer is an artifact bound to the arena. It is valid until the next Load.
type LoadedLayer struct {
	artifact *registry.Artifact
	input    *arena.Tensor
	acts     []*arena.Tensor
}

// Artifact returns the bound artifact.
func (l *LoadedLayer) Artifact() *registry.Artifact { return l.artifact }

// Valid reports whether the layer is still the arena's live binding.
func (l *LoadedLayer) Valid() bool { return l.input.Valid() }

// New constructs an engine with its own arena.
func New(cfg Config) (*Engine, error) {
	if cfg.ArenaBytes <= 0 {
		cfg.ArenaBytes = arena.DefaultCapacity
	}
	if cfg.SchemaVersion == 0 {
		cfg.SchemaVersion = registry.SupportedSchemaVersion
	}
	a, err := arena.New(cfg.ArenaBytes)
	if err != nil {
		return nil, err
	}
	return &Engine{arena: a, schema: cfg.SchemaVersion}, nil
}

// ArenaCapacity is the arena size in bytes.
func (e *Engine) ArenaCapacity() int { return e.arena.Capacity() }

// ArenaUsed is the number of arena bytes held by the current binding.
func (e *Engine) ArenaUsed() int { return e.arena.Used() }

// Binding identifies the arena's current binding; it changes on every allocating Load.
func (e *Engine) Binding() uint64 { return e.arena.Generation() }

// SchemaVersion is the artifact schema version this engine accepts.
func (e *Engine) SchemaVersion() uint32 { return e.schema }

// Requirement is the number of arena bytes an artifact's tensors occupy.
func Requirement(a *registry.Artifact) int {
	n := arena.AlignedSize(4 * a.InputSize())
	for _, op := range a.Ops {
		n += arena.AlignedSize(4 * op.Out)
	}
	return n
}

// Load binds an artifact to the arena, releasing the previous binding.
// A schema mismatch is reported before the arena is touched. After any other
// failure the arena holds a partial binding and the caller must not reuse it.
func (e *Engine) Load(a *registry.Artifact) (*LoadedLayer, error) {
	if a == nil {
		return nil, errors.New("engine: nil artifact")
	}
	if a.SchemaVersion != e.schema {
		return nil, schemaMismatchError{name: a.Name, got: a.SchemaVersion, want: e.schema}
	}

	e.arena.Reset()
	if need := Requirement(a); need > e.arena.Capacity() {
		return nil, fmt.Errorf("load %s: %w", a.Name, arena.ErrExhausted(need, e.arena.Capacity()))
	}
	in, err := e.arena.Alloc(1, a.InputHeight, a.InputWidth)
	if err != nil {
		return nil, fmt.Errorf("load %s: input tensor: %w", a.Name, err)
	}
	l := &LoadedLayer{artifact: a, input: in, acts: make([]*arena.Tensor, 0, len(a.Ops))}
	for i, op := range a.Ops {
		t, err := e.arena.Alloc(1, op.Out)
		if err != nil {
			return nil, fmt.Errorf("load %s: op %d tensor: %w", a.Name, i, err)
		}
		l.acts = append(l.acts, t)
	}
	return l, nil
}

// Run evaluates a loaded layer on input and returns a copy of the output vector
// together with the elapsed wall time in seconds (microsecond resolution).
func (e *Engine) Run(l *LoadedLayer, input []float32) ([]float32, float64, error) {
	if l == nil {
		return nil, 0, errors.New("engine: nil layer")
	}
	in, err := l.input.Data()
	if err != nil {
		return nil, 0, fmt.Errorf("run %s: %w", l.artifact.Name, err)
	}
	if len(input) != len(in) {
		return nil, 0, ErrInputSizeMismatch(len(input), len(in))
	}

	start := time.Now()
	copy(in, input)
	cur := in
	for i, op := range l.artifact.Ops {
		out, err := l.acts[i].Data()
		if err != nil {
			return nil, 0, fmt.Errorf("run %s: %w", l.artifact.Name, err)
		}
		dense(op.Weights, op.Bias, cur, out)
		activate(op.Activation, out)
		cur = out
	}
	elapsed := float64(time.Since(start).Microseconds()) / 1e6

	// Output tensor is [batch, n]; the first non-batch dimension is the vector length.
	n := len(cur)
	if len(l.acts) > 0 {
		n = l.acts[len(l.acts)-1].Dims()[1]
	}
	result := make([]float32, n)
	copy(result, cur[:n])
	return result, elapsed, nil
}
