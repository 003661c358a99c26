package models

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// ParameterRange is an inclusive range of hyperparameter values.
type ParameterRange[T constraints.Integer | constraints.Float] struct {
	Min T `json:"min" yaml:"min"`
	Max T `json:"max" yaml:"max"`
}

func (r ParameterRange[T]) Validate() error {
	if r.Min > r.Max {
		return errors.Errorf("invalid range: min %v is greater than max %v", r.Min, r.Max)
	}
	return nil
}

func (r ParameterRange[T]) Contains(v T) bool {
	return v >= r.Min && v <= r.Max
}

// Steps enumerates Min, Min+step, ... up to and including Max. Ranges ending
// at the type's maximum terminate.
func (r ParameterRange[T]) Steps(step T) []T {
	if step <= 0 || r.Min > r.Max {
		return nil
	}
	var values []T
	for v := r.Min; ; {
		values = append(values, v)
		next := v + step
		// next < v means the addition wrapped around
		if next < v || next > r.Max {
			break
		}
		v = next
	}
	return values
}
