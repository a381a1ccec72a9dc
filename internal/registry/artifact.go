package registry

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Magic is the little-endian "NNLY" tag at the start of every layer artifact.
const Magic uint32 = 0x594C4E4E

// SupportedSchemaVersion is the artifact schema version the engine executes.
const SupportedSchemaVersion uint32 = 3

const (
	headerSize   = 16
	opHeaderSize = 4
)

// OpKind identifies the operation encoded in an artifact.
type OpKind uint8

const (
	OpDense OpKind = 1
)

// Activation is applied element-wise (softmax: vector-wise) after an op.
type Activation uint8

const (
	ActNone Activation = iota
	ActReLU
	ActSigmoid
	ActTanh
	ActSoftmax
)

func (a Activation) String() string {
	switch a {
	case ActNone:
		return "none"
	case ActReLU:
		return "relu"
	case ActSigmoid:
		return "sigmoid"
	case ActTanh:
		return "tanh"
	case ActSoftmax:
		return "softmax"
	default:
		return fmt.Sprintf("activation(%d)", uint8(a))
	}
}

// ParseActivation maps a textual activation name to its code.
func ParseActivation(s string) (Activation, error) {
	switch s {
	case "", "none", "linear":
		return ActNone, nil
	case "relu":
		return ActReLU, nil
	case "sigmoid":
		return ActSigmoid, nil
	case "tanh":
		return ActTanh, nil
	case "softmax":
		return ActSoftmax, nil
	}
	return ActNone, fmt.Errorf("unknown activation %q", s)
}

// Op is one operation of a compiled layer. Weights are row-major [Out][In].
type Op struct {
	Kind       OpKind
	Activation Activation
	In         int
	Out        int
	Weights    []float32
	Bias       []float32
}

// Artifact is the immutable compiled representation of one network layer.
// Artifacts are built once (at init or load time) and must not be mutated.
type Artifact struct {
	Index         int
	Name          string
	SchemaVersion uint32
	InputHeight   int
	InputWidth    int
	Ops           []Op
	// Size is the encoded size in bytes.
	Size int
}

// InputSize is the number of elements of the layer's input tensor.
func (a *Artifact) InputSize() int { return a.InputHeight * a.InputWidth }

// OutputSize is the length of the layer's output vector.
func (a *Artifact) OutputSize() int {
	if len(a.Ops) == 0 {
		return a.InputSize()
	}
	return a.Ops[len(a.Ops)-1].Out
}

// Parse decodes an artifact. Structure is validated; the schema version is
// carried through untouched so the engine can decide compatibility.
func Parse(index int, name string, b []byte) (*Artifact, error) {
	if len(b) < headerSize {
		return nil, malformed(name, "short header (%d bytes)", len(b))
	}
	le := binary.LittleEndian
	if m := le.Uint32(b[0:4]); m != Magic {
		return nil, malformed(name, "bad magic %#x", m)
	}
	a := &Artifact{
		Index:         index,
		Name:          name,
		SchemaVersion: le.Uint32(b[4:8]),
		InputHeight:   int(le.Uint16(b[8:10])),
		InputWidth:    int(le.Uint16(b[10:12])),
		Size:          len(b),
	}
	if a.InputSize() == 0 {
		return nil, malformed(name, "empty input shape %dx%d", a.InputHeight, a.InputWidth)
	}
	nops := int(le.Uint16(b[12:14]))
	off := headerSize
	in := a.InputSize()
	a.Ops = make([]Op, 0, nops)
	for i := 0; i < nops; i++ {
		if len(b)-off < opHeaderSize {
			return nil, malformed(name, "op %d: truncated header", i)
		}
		op := Op{
			Kind:       OpKind(b[off]),
			Activation: Activation(b[off+1]),
			In:         in,
			Out:        int(le.Uint16(b[off+2 : off+4])),
		}
		off += opHeaderSize
		if op.Kind != OpDense {
			return nil, malformed(name, "op %d: unsupported kind %d", i, op.Kind)
		}
		if op.Activation > ActSoftmax {
			return nil, malformed(name, "op %d: unsupported activation %d", i, op.Activation)
		}
		if op.Out == 0 {
			return nil, malformed(name, "op %d: zero outputs", i)
		}
		nw := op.In * op.Out
		need := 4 * (nw + op.Out)
		if len(b)-off < need {
			return nil, malformed(name, "op %d: truncated parameters (need %d, have %d)", i, need, len(b)-off)
		}
		op.Weights = readFloats(b[off:], nw)
		off += 4 * nw
		op.Bias = readFloats(b[off:], op.Out)
		off += 4 * op.Out
		a.Ops = append(a.Ops, op)
		in = op.Out
	}
	if off != len(b) {
		return nil, malformed(name, "%d trailing bytes", len(b)-off)
	}
	return a, nil
}

// Encode serializes an artifact in the format read by Parse.
func Encode(a *Artifact) ([]byte, error) {
	var buf bytes.Buffer
	le := binary.LittleEndian
	hdr := make([]byte, headerSize)
	le.PutUint32(hdr[0:4], Magic)
	le.PutUint32(hdr[4:8], a.SchemaVersion)
	le.PutUint16(hdr[8:10], uint16(a.InputHeight))
	le.PutUint16(hdr[10:12], uint16(a.InputWidth))
	le.PutUint16(hdr[12:14], uint16(len(a.Ops)))
	buf.Write(hdr)

	in := a.InputSize()
	for i, op := range a.Ops {
		if len(op.Weights) != in*op.Out || len(op.Bias) != op.Out {
			return nil, fmt.Errorf("op %d: expected %d weights and %d biases, got %d and %d",
				i, in*op.Out, op.Out, len(op.Weights), len(op.Bias))
		}
		oh := make([]byte, opHeaderSize)
		oh[0] = byte(op.Kind)
		oh[1] = byte(op.Activation)
		le.PutUint16(oh[2:4], uint16(op.Out))
		buf.Write(oh)
		if err := binary.Write(&buf, le, op.Weights); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, le, op.Bias); err != nil {
			return nil, err
		}
		in = op.Out
	}
	return buf.Bytes(), nil
}

func readFloats(b []byte, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}
