package engine

import (
	"math"

	"nnrunner/internal/registry"
)

// dense computes out = W·in + b with W row-major [len(out)][len(in)].
func dense(w, b, in, out []float32) {
	n := len(in)
	for o := range out {
		row := w[o*n : (o+1)*n]
		sum := b[o]
		for i, x := range in {
			sum += row[i] * x
		}
		out[o] = sum
	}
}

func activate(act registry.Activation, data []float32) {
	switch act {
	case registry.ActReLU:
		for i, v := range data {
			if v < 0 {
				data[i] = 0
			}
		}
	case registry.ActSigmoid:
		for i, v := range data {
			data[i] = float32(1 / (1 + math.Exp(-float64(v))))
		}
	case registry.ActTanh:
		for i, v := range data {
			data[i] = float32(math.Tanh(float64(v)))
		}
	case registry.ActSoftmax:
		softmax(data)
	}
}

func softmax(data []float32) {
	if len(data) == 0 {
		return
	}
	maxVal := data[0]
	for _, v := range data[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float64
	for i, v := range data {
		e := math.Exp(float64(v - maxVal))
		data[i] = float32(e)
		sum += e
	}
	for i := range data {
		data[i] = float32(float64(data[i]) / sum)
	}
}
