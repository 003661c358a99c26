// Package trainer runs one training configuration to completion with
// best-checkpoint model selection on validation accuracy.
package trainer

import (
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/imishinist/tuneparams/internal/dataset"
	"github.com/imishinist/tuneparams/internal/models"
	"github.com/imishinist/tuneparams/internal/nn"
)

type Model interface {
	Forward(inputs [][]float64) ([][]float64, error)
	Backward(gradLogits [][]float64) error
	SetTraining(training bool)
	StateDict() nn.StateDict
	LoadStateDict(sd nn.StateDict) error
}

type Criterion interface {
	Loss(logits [][]float64, labels []int) (float64, [][]float64, error)
}

type Optimizer interface {
	ZeroGrad()
	Step() error
}

type Scheduler interface {
	Step()
}

type Loader interface {
	Len() int
	Batches() ([]dataset.Batch, error)
}

// Releaser is implemented by models holding scratch memory that should be
// freed once a run is over.
type Releaser interface {
	Release()
}

// Setup is everything one run needs.
type Setup struct {
	Model     Model
	Criterion Criterion
	Optimizer Optimizer
	Scheduler Scheduler
	Train     Loader
	Val       Loader
	Epochs    int
}

func (s Setup) validate() error {
	switch {
	case s.Model == nil:
		return errors.New("model is required")
	case s.Criterion == nil:
		return errors.New("criterion is required")
	case s.Optimizer == nil:
		return errors.New("optimizer is required")
	case s.Scheduler == nil:
		return errors.New("scheduler is required")
	case s.Train == nil || s.Val == nil:
		return errors.New("train and val loaders are required")
	case s.Epochs < 1:
		return errors.Errorf("epoch count must be positive, got %d", s.Epochs)
	}
	return nil
}

// Result is the outcome of a run. Model holds the best-validation parameters.
type Result struct {
	Model      Model
	Metrics    models.RunMetrics
	BestValAcc float64
	BestEpoch  int
	Elapsed    time.Duration
}

type phaseStats struct {
	loss float64
	acc  float64
}

// Train runs exactly s.Epochs epochs of a training phase followed by a
// validation phase. The scheduler steps after each training phase. Whenever
// validation accuracy strictly exceeds the best so far, a copy of the model
// parameters is kept; it is loaded back before returning.
//
// Any batch error aborts the run.
func Train(s Setup) (*Result, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	since := time.Now()
	res := &Result{Model: s.Model}

	// Best checkpoint; starts from the initial parameters so that a run which
	// never improves on zero accuracy still returns a defined state.
	best := s.Model.StateDict().Clone()
	defer func() {
		best = nil
		if r, ok := s.Model.(Releaser); ok {
			r.Release()
		}
	}()

	for epoch := 0; epoch < s.Epochs; epoch++ {
		klog.InfoS("Epoch", "epoch", epoch, "last", s.Epochs-1)

		for _, phase := range []models.Phase{models.PhaseTrain, models.PhaseVal} {
			stats, err := runPhase(s, phase)
			if err != nil {
				return nil, errors.Wrapf(err, "epoch %d %s phase", epoch, phase)
			}
			klog.InfoS("Phase complete", "phase", phase, "loss", stats.loss, "acc", stats.acc)

			if phase == models.PhaseTrain {
				s.Scheduler.Step()
			} else if stats.acc > res.BestValAcc {
				res.BestValAcc = stats.acc
				res.BestEpoch = epoch + 1
				best = s.Model.StateDict().Clone()
			}

			res.Metrics.Append(phase, stats.acc)
		}
	}

	res.Elapsed = time.Since(since)
	klog.InfoS("Training complete", "elapsed", res.Elapsed.Round(time.Second), "bestValAcc", res.BestValAcc, "bestEpoch", res.BestEpoch)

	if err := s.Model.LoadStateDict(best); err != nil {
		return nil, errors.Wrap(err, "failed to load best checkpoint")
	}
	return res, nil
}

func runPhase(s Setup, phase models.Phase) (phaseStats, error) {
	loader := s.Val
	training := phase == models.PhaseTrain
	if training {
		loader = s.Train
	}
	s.Model.SetTraining(training)

	n := loader.Len()
	if n == 0 {
		return phaseStats{}, dataset.ErrEmptyDataset
	}

	batches, err := loader.Batches()
	if err != nil {
		return phaseStats{}, errors.Wrap(err, "failed to load batches")
	}

	var (
		runningLoss     float64
		runningCorrects int
	)
	for i, b := range batches {
		if i%10 == 0 {
			klog.V(2).InfoS("Batch", "phase", phase, "batch", i, "batches", len(batches))
		}
		if b.Size() == 0 || len(b.Inputs) != b.Size() {
			return phaseStats{}, errors.Errorf("batch %d is malformed: %d inputs, %d labels", i, len(b.Inputs), b.Size())
		}

		if training {
			s.Optimizer.ZeroGrad()
		}

		logits, err := s.Model.Forward(b.Inputs)
		if err != nil {
			return phaseStats{}, errors.Wrapf(err, "batch %d forward", i)
		}
		loss, grad, err := s.Criterion.Loss(logits, b.Labels)
		if err != nil {
			return phaseStats{}, errors.Wrapf(err, "batch %d loss", i)
		}

		if training {
			if err := s.Model.Backward(grad); err != nil {
				return phaseStats{}, errors.Wrapf(err, "batch %d backward", i)
			}
			if err := s.Optimizer.Step(); err != nil {
				return phaseStats{}, errors.Wrapf(err, "batch %d optimizer step", i)
			}
		}

		runningLoss += loss * float64(b.Size())
		for j, z := range logits {
			if nn.Argmax(z) == b.Labels[j] {
				runningCorrects++
			}
		}
	}

	return phaseStats{
		loss: runningLoss / float64(n),
		acc:  float64(runningCorrects) / float64(n),
	}, nil
}
