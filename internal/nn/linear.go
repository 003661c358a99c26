package nn

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// ErrShapeMismatch is returned when a tensor does not have the expected size.
var ErrShapeMismatch = errors.New("shape mismatch")

// Linear is a fully connected layer y = Wx + b with W stored row-major (Out x In).
type Linear struct {
	In, Out int
	Weight  *Parameter
	Bias    *Parameter

	input [][]float64
}

// NewLinear initialises weights and bias uniformly in [-1/sqrt(in), 1/sqrt(in)].
func NewLinear(name string, in, out int, rng *rand.Rand) *Linear {
	l := &Linear{
		In:     in,
		Out:    out,
		Weight: newParameter(name+".weight", in*out),
		Bias:   newParameter(name+".bias", out),
	}

	bound := 1 / math.Sqrt(float64(in))
	for i := range l.Weight.Value {
		l.Weight.Value[i] = (2*rng.Float64() - 1) * bound
	}
	for i := range l.Bias.Value {
		l.Bias.Value[i] = (2*rng.Float64() - 1) * bound
	}
	return l
}

func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.Weight, l.Bias}
}

func (l *Linear) row(o int) []float64 {
	return l.Weight.Value[o*l.In : (o+1)*l.In]
}

// Forward computes the layer output. With keep set the inputs are retained
// for the following Backward call.
func (l *Linear) Forward(x [][]float64, keep bool) ([][]float64, error) {
	out := make([][]float64, len(x))
	for n, xn := range x {
		if len(xn) != l.In {
			return nil, errors.Wrapf(ErrShapeMismatch, "linear input %d has %d features, want %d", n, len(xn), l.In)
		}
		yn := make([]float64, l.Out)
		for o := range yn {
			yn[o] = floats.Dot(l.row(o), xn) + l.Bias.Value[o]
		}
		out[n] = yn
	}

	if keep {
		l.input = x
	} else {
		l.input = nil
	}
	return out, nil
}

// Backward accumulates dL/dW and dL/db from the gradient of the outputs.
func (l *Linear) Backward(gradOut [][]float64) error {
	if l.input == nil {
		return errors.New("linear backward called without a retained forward pass")
	}
	if len(gradOut) != len(l.input) {
		return errors.Wrapf(ErrShapeMismatch, "gradient batch %d, forward batch %d", len(gradOut), len(l.input))
	}

	for n, g := range gradOut {
		if len(g) != l.Out {
			return errors.Wrapf(ErrShapeMismatch, "gradient %d has %d outputs, want %d", n, len(g), l.Out)
		}
		for o, gv := range g {
			floats.AddScaled(l.Weight.Grad[o*l.In:(o+1)*l.In], gv, l.input[n])
			l.Bias.Grad[o] += gv
		}
	}
	return nil
}

// Release drops the retained forward inputs.
func (l *Linear) Release() {
	l.input = nil
}
