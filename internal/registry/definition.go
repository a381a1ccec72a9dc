package registry

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Definition is the human-editable description of a layer compiled by `nnrunner pack`.
// Ops without explicit weights get deterministic values drawn from Seed.
type Definition struct {
	SchemaVersion uint32         `json:"schema_version" yaml:"schema_version" toml:"schema_version"`
	InputHeight   int            `json:"input_height" yaml:"input_height" toml:"input_height"`
	InputWidth    int            `json:"input_width" yaml:"input_width" toml:"input_width"`
	Seed          int64          `json:"seed" yaml:"seed" toml:"seed"`
	Ops           []OpDefinition `json:"ops" yaml:"ops" toml:"ops"`
}

// OpDefinition describes one dense op.
type OpDefinition struct {
	Out        int       `json:"out" yaml:"out" toml:"out"`
	Activation string    `json:"activation" yaml:"activation" toml:"activation"`
	Weights    []float32 `json:"weights,omitempty" yaml:"weights,omitempty" toml:"weights,omitempty"`
	Bias       []float32 `json:"bias,omitempty" yaml:"bias,omitempty" toml:"bias,omitempty"`
}

// LoadDefinition reads a definition file. Supports .yaml/.yml, .json, .toml.
func LoadDefinition(path string) (Definition, error) {
	var d Definition
	b, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &d)
	case ".json":
		err = json.Unmarshal(b, &d)
	case ".toml":
		err = toml.Unmarshal(b, &d)
	default:
		return d, fmt.Errorf("unsupported definition extension: %s", ext)
	}
	return d, err
}

// Compile turns a definition into an artifact.
func (d Definition) Compile(index int, name string) (*Artifact, error) {
	if d.InputHeight <= 0 || d.InputWidth <= 0 {
		return nil, fmt.Errorf("invalid input shape %dx%d", d.InputHeight, d.InputWidth)
	}
	if len(d.Ops) == 0 {
		return nil, fmt.Errorf("definition has no ops")
	}
	a := &Artifact{
		Index:         index,
		Name:          name,
		SchemaVersion: d.SchemaVersion,
		InputHeight:   d.InputHeight,
		InputWidth:    d.InputWidth,
	}
	if a.SchemaVersion == 0 {
		a.SchemaVersion = SupportedSchemaVersion
	}
	rng := rand.New(rand.NewSource(d.Seed))
	in := a.InputSize()
	for i, od := range d.Ops {
		if od.Out <= 0 {
			return nil, fmt.Errorf("op %d: out must be positive", i)
		}
		act, err := ParseActivation(od.Activation)
		if err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
		op := Op{Kind: OpDense, Activation: act, In: in, Out: od.Out}
		op.Weights = od.Weights
		if len(op.Weights) == 0 {
			op.Weights = uniform(rng, in*od.Out, 0.25)
		}
		op.Bias = od.Bias
		if len(op.Bias) == 0 {
			op.Bias = uniform(rng, od.Out, 0.5)
		}
		if len(op.Weights) != in*od.Out || len(op.Bias) != od.Out {
			return nil, fmt.Errorf("op %d: expected %d weights and %d biases", i, in*od.Out, od.Out)
		}
		a.Ops = append(a.Ops, op)
		in = od.Out
	}
	b, err := Encode(a)
	if err != nil {
		return nil, err
	}
	a.Size = len(b)
	return a, nil
}

func uniform(rng *rand.Rand, n int, limit float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32((rng.Float64()*2 - 1) * limit)
	}
	return out
}
