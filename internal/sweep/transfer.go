package sweep

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/imishinist/tuneparams/internal/dataset"
	"github.com/imishinist/tuneparams/internal/models"
	"github.com/imishinist/tuneparams/internal/nn"
	"github.com/imishinist/tuneparams/internal/trainer"
)

// Fine-tuning constants shared by every run.
const (
	Momentum     = 0.9
	DecayEvery   = 7
	DecayFactor  = 0.1
	BackboneGrid = 4
)

// TransferRunner fine-tunes a fresh classification head on top of a frozen
// backbone for each configuration. Nothing is shared between runs.
type TransferRunner struct {
	DataRoot  string
	BatchSize int
	ImageSize int
	// Seed fixes shuffling and head initialisation. Zero leaves runs unseeded.
	Seed int64
}

func (r *TransferRunner) rng() *rand.Rand {
	seed := r.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func (r *TransferRunner) Run(cfg models.Configuration) (Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return Outcome{}, err
	}
	rng := r.rng()

	tf := dataset.ResizeNormalize(r.ImageSize, dataset.ImageNetMean, dataset.ImageNetStd)
	train, val, err := dataset.LoadSplits(r.DataRoot, cfg.Dataset, tf, tf)
	if err != nil {
		return Outcome{}, err
	}

	trainLoader, err := dataset.NewLoader(train, r.BatchSize, true, rng)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "failed to create train loader")
	}
	valLoader, err := dataset.NewLoader(val, r.BatchSize, true, rng)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "failed to create val loader")
	}

	backbone, err := nn.NewPooledBackbone(3, r.ImageSize, BackboneGrid)
	if err != nil {
		return Outcome{}, err
	}
	model, err := nn.NewClassifier(backbone, len(train.Classes), rng)
	if err != nil {
		return Outcome{}, err
	}

	opt := nn.NewSGD(model.Parameters(), cfg.LearningRate, Momentum)
	res, err := trainer.Train(trainer.Setup{
		Model:     model,
		Criterion: nn.CrossEntropy{},
		Optimizer: opt,
		Scheduler: nn.NewStepLR(opt, DecayEvery, DecayFactor),
		Train:     trainLoader,
		Val:       valLoader,
		Epochs:    cfg.Epochs,
	})
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Metrics:    res.Metrics,
		BestEpoch:  res.BestEpoch,
		BestValAcc: res.BestValAcc,
		Elapsed:    res.Elapsed,
	}, nil
}
