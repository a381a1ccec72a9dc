package registry

import "fmt"

// Registry is an ordered lookup table of layer artifacts indexed 0..N-1.
// It is populated once and read-only afterwards.
type Registry struct {
	layers []*Artifact
}

// New builds a registry. Each artifact's Index must equal its position.
func New(layers []*Artifact) (*Registry, error) {
	for i, a := range layers {
		if a == nil {
			return nil, fmt.Errorf("layer %d: nil artifact", i)
		}
		if a.Index != i {
			return nil, fmt.Errorf("layer %d: artifact %q carries index %d", i, a.Name, a.Index)
		}
	}
	out := make([]*Artifact, len(layers))
	copy(out, layers)
	return &Registry{layers: out}, nil
}

// Resolve returns the artifact for a layer index.
func (r *Registry) Resolve(index int) (*Artifact, error) {
	if index < 0 || index >= len(r.layers) {
		return nil, ErrUnknownLayer(index, len(r.layers))
	}
	return r.layers[index], nil
}

// Len is the number of known layers (N).
func (r *Registry) Len() int { return len(r.layers) }

// Layers returns a copy of the ordered artifact list.
func (r *Registry) Layers() []*Artifact {
	out := make([]*Artifact, len(r.layers))
	copy(out, r.layers)
	return out
}
