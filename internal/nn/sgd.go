package nn

import "gonum.org/v1/gonum/floats"

// SGD is stochastic gradient descent with classical momentum:
// v = momentum*v + g; p -= lr*v.
type SGD struct {
	params   []*Parameter
	lr       float64
	momentum float64
	velocity [][]float64
}

func NewSGD(params []*Parameter, lr, momentum float64) *SGD {
	return &SGD{
		params:   params,
		lr:       lr,
		momentum: momentum,
	}
}

func (o *SGD) ZeroGrad() {
	for _, p := range o.params {
		for i := range p.Grad {
			p.Grad[i] = 0
		}
	}
}

func (o *SGD) Step() error {
	if o.velocity == nil {
		o.velocity = make([][]float64, len(o.params))
		for i, p := range o.params {
			o.velocity[i] = append([]float64(nil), p.Grad...)
		}
	} else {
		for i, p := range o.params {
			floats.Scale(o.momentum, o.velocity[i])
			floats.Add(o.velocity[i], p.Grad)
		}
	}

	for i, p := range o.params {
		floats.AddScaled(p.Value, -o.lr, o.velocity[i])
	}
	return nil
}

func (o *SGD) LearningRate() float64 {
	return o.lr
}

func (o *SGD) SetLearningRate(lr float64) {
	o.lr = lr
}
