package engine

import (
	"math"
	"testing"

	"nnrunner/internal/registry"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func compile(t *testing.T, d registry.Definition) *registry.Artifact {
	t.Helper()
	a, err := d.Compile(0, "test")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return a
}

func embeddedLayer(t *testing.T, i int) *registry.Artifact {
	t.Helper()
	reg, err := registry.Embedded()
	if err != nil {
		t.Fatalf("embedded: %v", err)
	}
	a, err := reg.Resolve(i)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return a
}

func TestNewDefaults(t *testing.T) {
	e := newEngine(t)
	if e.ArenaCapacity() != 12*1024 {
		t.Fatalf("arena capacity=%d", e.ArenaCapacity())
	}
	if e.SchemaVersion() != registry.SupportedSchemaVersion {
		t.Fatalf("schema=%d", e.SchemaVersion())
	}
}

func TestRunKnownValues(t *testing.T) {
	e := newEngine(t)
	a := compile(t, registry.Definition{
		InputHeight: 1,
		InputWidth:  3,
		Ops: []registry.OpDefinition{{
			Out:        2,
			Activation: "relu",
			Weights:    []float32{1, 2, 3, -1, -1, -1},
			Bias:       []float32{0.5, 0},
		}},
	})
	l, err := e.Load(a)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out, elapsed, err := e.Run(l, []float32{1, 1, 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(out) != 2 || out[0] != 6.5 || out[1] != 0 {
		t.Fatalf("unexpected output %v", out)
	}
	if elapsed < 0 {
		t.Fatalf("negative elapsed %v", elapsed)
	}
}

func TestRunSoftmaxNormalizes(t *testing.T) {
	e := newEngine(t)
	l, err := e.Load(embeddedLayer(t, 4))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out, _, err := e.Run(l, make([]float32, 100))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var sum float64
	for _, v := range out {
		sum += float64(v)
	}
	if len(out) != 10 || math.Abs(sum-1) > 1e-5 {
		t.Fatalf("softmax output len=%d sum=%v", len(out), sum)
	}
}

func TestRunDeterministic(t *testing.T) {
	e := newEngine(t)
	l, err := e.Load(embeddedLayer(t, 2))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	input := make([]float32, 100)
	for i := range input {
		input[i] = float32(i % 10)
	}
	a, _, err := e.Run(l, input)
	if err != nil {
		t.Fatalf("run 1: %v", err)
	}
	b, _, err := e.Run(l, input)
	if err != nil {
		t.Fatalf("run 2: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("length differs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			t.Fatalf("output %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestLoadSchemaMismatchDoesNotAllocate(t *testing.T) {
	e := newEngine(t)
	good, err := e.Load(embeddedLayer(t, 0))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	binding, used := e.Binding(), e.ArenaUsed()

	bad := compile(t, registry.Definition{
		SchemaVersion: registry.SupportedSchemaVersion + 1,
		InputHeight:   10,
		InputWidth:    10,
		Ops:           []registry.OpDefinition{{Out: 4}},
	})
	if _, err := e.Load(bad); !IsSchemaMismatch(err) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	if e.Binding() != binding || e.ArenaUsed() != used {
		t.Fatalf("schema mismatch touched the arena: binding %d->%d used %d->%d", binding, e.Binding(), used, e.ArenaUsed())
	}
	if !good.Valid() {
		t.Fatalf("previous binding released by a rejected load")
	}
}

func TestLoadArenaExhausted(t *testing.T) {
	e := newEngine(t)
	big := compile(t, registry.Definition{
		InputHeight: 10,
		InputWidth:  10,
		Ops:         []registry.OpDefinition{{Out: 4000}},
	})
	if need := Requirement(big); need <= e.ArenaCapacity() {
		t.Fatalf("test artifact fits (%d bytes)", need)
	}
	if _, err := e.Load(big); !IsArenaExhausted(err) {
		t.Fatalf("expected arena exhausted, got %v", err)
	}
}

func TestRunInputSizeMismatch(t *testing.T) {
	e := newEngine(t)
	l, err := e.Load(embeddedLayer(t, 0))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, n := range []int{0, 99, 101} {
		if _, _, err := e.Run(l, make([]float32, n)); !IsInputSizeMismatch(err) {
			t.Fatalf("len %d: expected input size mismatch, got %v", n, err)
		}
	}
}

func TestLoadInvalidatesPreviousLayer(t *testing.T) {
	e := newEngine(t)
	first, err := e.Load(embeddedLayer(t, 0))
	if err != nil {
		t.Fatalf("load 0: %v", err)
	}
	if _, err := e.Load(embeddedLayer(t, 1)); err != nil {
		t.Fatalf("load 1: %v", err)
	}
	if first.Valid() {
		t.Fatalf("first layer still valid after re-binding")
	}
	if _, _, err := e.Run(first, make([]float32, 100)); !IsStaleBinding(err) {
		t.Fatalf("expected stale binding, got %v", err)
	}
}

func TestEmbeddedLayersFitArena(t *testing.T) {
	reg, err := registry.Embedded()
	if err != nil {
		t.Fatalf("embedded: %v", err)
	}
	e := newEngine(t)
	for _, a := range reg.Layers() {
		l, err := e.Load(a)
		if err != nil {
			t.Fatalf("load %s: %v", a.Name, err)
		}
		if e.ArenaUsed() != Requirement(a) {
			t.Fatalf("%s: used %d, requirement %d", a.Name, e.ArenaUsed(), Requirement(a))
		}
		out, _, err := e.Run(l, make([]float32, 100))
		if err != nil {
			t.Fatalf("run %s: %v", a.Name, err)
		}
		if len(out) != a.OutputSize() {
			t.Fatalf("%s: output len %d, want %d", a.Name, len(out), a.OutputSize())
		}
	}
}
