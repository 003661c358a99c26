package knn

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/imishinist/tuneparams/internal/dataset"
	"github.com/imishinist/tuneparams/internal/models"
)

// Curve is the held-out error for each neighbor count of one pair.
type Curve struct {
	Pair models.Pair
	K    []int
	Err  []float64
}

// Tune records 1 - accuracy on test for every k. It is equivalent to fitting
// a Classifier per k; the neighbor ordering is computed once.
func Tune(train, test dataset.Flat, ks []int) (Curve, error) {
	if len(ks) == 0 {
		return Curve{}, errors.New("no neighbor counts to try")
	}
	if len(test.X) == 0 {
		return Curve{}, errors.New("no test samples")
	}
	for _, k := range ks {
		// validates k and the training matrix
		if _, err := Fit(k, train.X, train.Y); err != nil {
			return Curve{}, err
		}
	}

	orders := make([][]int, len(test.X))
	for i, q := range test.X {
		order, err := neighbors(train.X, q)
		if err != nil {
			return Curve{}, errors.Wrapf(err, "test sample %d", i)
		}
		orders[i] = order
	}

	curve := Curve{K: append([]int(nil), ks...)}
	for _, k := range ks {
		if k%10 == 0 {
			klog.V(1).InfoS("Tuning", "k", k)
		}
		pred := make([]int, len(test.X))
		for i, order := range orders {
			pred[i] = vote(train.Y, order[:k])
		}
		curve.Err = append(curve.Err, 1-Accuracy(test.Y, pred))
	}
	return curve, nil
}

// Tuner runs Tune for every pair of a plan, reading <Root>/{train,val}/<class>.
type Tuner struct {
	Root string
}

func (t *Tuner) Run(plan models.KNNPlan) ([]Curve, error) {
	if err := plan.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid knn plan")
	}
	ks := plan.Neighbors.Steps(1)

	curves := make([]Curve, 0, len(plan.Pairs))
	for _, pair := range plan.Pairs {
		klog.InfoS("Tuning pair", "pair", pair.String())

		train, err := dataset.LoadFlatClasses(t.Root, "train", pair.Classes())
		if err != nil {
			return curves, errors.Wrapf(err, "failed to load %s", pair)
		}
		test, err := dataset.LoadFlatClasses(t.Root, "val", pair.Classes())
		if err != nil {
			return curves, errors.Wrapf(err, "failed to load %s", pair)
		}
		if len(train.X[0]) != len(test.X[0]) {
			return curves, errors.Wrapf(dataset.ErrShapeMismatch, "%s: train and val images differ in size", pair)
		}

		curve, err := Tune(train, test, ks)
		if err != nil {
			return curves, errors.Wrapf(err, "failed to tune %s", pair)
		}
		curve.Pair = pair
		curves = append(curves, curve)
	}
	return curves, nil
}
