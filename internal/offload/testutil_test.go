package offload

import (
	"errors"
	"sync"
	"testing"

	"nnrunner/internal/engine"
	"nnrunner/internal/registry"
)

// fakeEngine is a lightweight in-memory engine used for tests.
type fakeEngine struct {
	mu      sync.Mutex
	loadErr map[int]error
	runErr  map[int]error
	loaded  []int
	inputs  [][]float32
	// When set, Run signals entered and blocks until release is closed.
	entered chan struct{}
	release chan struct{}
}

func (f *fakeEngine) Load(a *registry.Artifact) (*engine.LoadedLayer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.loadErr[a.Index]; err != nil {
		return nil, err
	}
	f.loaded = append(f.loaded, a.Index)
	return &engine.LoadedLayer{}, nil
}

func (f *fakeEngine) Run(l *engine.LoadedLayer, input []float32) ([]float32, float64, error) {
	f.mu.Lock()
	idx := f.loaded[len(f.loaded)-1]
	f.inputs = append(f.inputs, append([]float32(nil), input...))
	err := f.runErr[idx]
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	if err != nil {
		return nil, 0, err
	}
	return []float32{float32(idx)}, 0.001 * float64(idx+1), nil
}

// fakeRegistry serves n placeholder artifacts.
type fakeRegistry struct{ n int }

func (r fakeRegistry) Resolve(i int) (*registry.Artifact, error) {
	if i < 0 || i >= r.n {
		return nil, registry.ErrUnknownLayer(i, r.n)
	}
	return &registry.Artifact{Index: i, Name: registry.FileName(i)}, nil
}

func (r fakeRegistry) Len() int { return r.n }

// shortRegistry reports more layers than it can resolve.
type shortRegistry struct {
	fakeRegistry
	resolvable int
}

func (r shortRegistry) Resolve(i int) (*registry.Artifact, error) {
	if i >= r.resolvable {
		return nil, registry.ErrUnknownLayer(i, r.resolvable)
	}
	return r.fakeRegistry.Resolve(i)
}

var errBoom = errors.New("boom")

func embeddedRegistry(t *testing.T, n int) *registry.Registry {
	t.Helper()
	reg, err := registry.Embedded()
	if err != nil {
		t.Fatalf("embedded: %v", err)
	}
	sub, err := registry.New(reg.Layers()[:n])
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return sub
}

func realEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.Config{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}
