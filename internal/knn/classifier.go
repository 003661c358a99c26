// Package knn tunes the neighbor count of a nearest-neighbor classifier over
// raw pixel vectors.
package knn

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

var ErrDimensionMismatch = errors.New("feature dimensions differ")

// Classifier is a k-nearest-neighbor classifier with Euclidean distance and
// uniform votes. Equidistant neighbors keep training order; tied votes go to
// the lowest label.
type Classifier struct {
	k int
	x [][]float64
	y []int
}

func Fit(k int, x [][]float64, y []int) (*Classifier, error) {
	if k < 1 {
		return nil, errors.Errorf("neighbor count must be positive, got %d", k)
	}
	if len(x) == 0 {
		return nil, errors.New("no training samples")
	}
	if len(x) != len(y) {
		return nil, errors.Errorf("%d samples for %d labels", len(x), len(y))
	}
	if k > len(x) {
		return nil, errors.Errorf("neighbor count %d exceeds %d training samples", k, len(x))
	}
	for i := range x {
		if len(x[i]) != len(x[0]) {
			return nil, errors.Wrapf(ErrDimensionMismatch, "sample %d has %d features, want %d", i, len(x[i]), len(x[0]))
		}
	}
	return &Classifier{k: k, x: x, y: y}, nil
}

func (c *Classifier) Predict(x [][]float64) ([]int, error) {
	pred := make([]int, len(x))
	for i, q := range x {
		order, err := neighbors(c.x, q)
		if err != nil {
			return nil, errors.Wrapf(err, "query %d", i)
		}
		pred[i] = vote(c.y, order[:c.k])
	}
	return pred, nil
}

// neighbors returns training indices ordered by distance to q.
func neighbors(train [][]float64, q []float64) ([]int, error) {
	dist := make([]float64, len(train))
	for i, p := range train {
		if len(p) != len(q) {
			return nil, errors.Wrapf(ErrDimensionMismatch, "query has %d features, want %d", len(q), len(p))
		}
		dist[i] = floats.Distance(p, q, 2)
	}

	order := make([]int, len(train))
	floats.ArgsortStable(dist, order)
	return order, nil
}

func vote(labels []int, idx []int) int {
	counts := map[int]int{}
	for _, i := range idx {
		counts[labels[i]]++
	}

	best, bestCount := 0, -1
	for label, n := range counts {
		if n > bestCount || (n == bestCount && label < best) {
			best, bestCount = label, n
		}
	}
	return best
}

// Accuracy is the fraction of positions where got equals want.
func Accuracy(want, got []int) float64 {
	if len(want) == 0 {
		return 0
	}
	var hit int
	for i := range want {
		if want[i] == got[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(want))
}
