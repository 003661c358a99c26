package nn

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// CrossEntropy is softmax cross-entropy averaged over the batch.
type CrossEntropy struct{}

// Loss returns the mean loss and its gradient with respect to the logits.
func (CrossEntropy) Loss(logits [][]float64, labels []int) (float64, [][]float64, error) {
	if len(logits) == 0 {
		return 0, nil, errors.New("empty batch")
	}
	if len(logits) != len(labels) {
		return 0, nil, errors.Wrapf(ErrShapeMismatch, "%d logits for %d labels", len(logits), len(labels))
	}

	n := float64(len(logits))
	var total float64
	grad := make([][]float64, len(logits))
	for i, z := range logits {
		if labels[i] < 0 || labels[i] >= len(z) {
			return 0, nil, errors.Errorf("label %d out of range for %d classes", labels[i], len(z))
		}

		p := Softmax(z)
		total -= math.Log(math.Max(p[labels[i]], 1e-300))

		p[labels[i]] -= 1
		floats.Scale(1/n, p)
		grad[i] = p
	}

	loss := total / n
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return 0, nil, errors.Errorf("non-finite loss %v", loss)
	}
	return loss, grad, nil
}

// Softmax returns a new slice with the normalised exponentials of z.
func Softmax(z []float64) []float64 {
	out := make([]float64, len(z))
	hi := floats.Max(z)
	for i, v := range z {
		out[i] = math.Exp(v - hi)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}

// Argmax returns the index of the first maximal value.
func Argmax(z []float64) int {
	best := 0
	for i, v := range z {
		if v > z[best] {
			best = i
		}
	}
	return best
}
