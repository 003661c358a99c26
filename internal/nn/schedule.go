package nn

import "math"

// LearningRateSetter is implemented by optimizers whose rate can be scheduled.
type LearningRateSetter interface {
	LearningRate() float64
	SetLearningRate(lr float64)
}

// StepLR multiplies the base learning rate by Gamma every StepSize steps.
type StepLR struct {
	opt      LearningRateSetter
	base     float64
	stepSize int
	gamma    float64
	epoch    int
}

func NewStepLR(opt LearningRateSetter, stepSize int, gamma float64) *StepLR {
	return &StepLR{
		opt:      opt,
		base:     opt.LearningRate(),
		stepSize: stepSize,
		gamma:    gamma,
	}
}

func (s *StepLR) Step() {
	s.epoch++
	s.opt.SetLearningRate(s.base * math.Pow(s.gamma, float64(s.epoch/s.stepSize)))
}

func (s *StepLR) LastEpoch() int {
	return s.epoch
}
