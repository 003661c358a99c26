package models

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// ErrInvalidConfiguration is returned for configurations that cannot be trained.
var ErrInvalidConfiguration = errors.New("invalid configuration")

var baseNamePattern = regexp.MustCompile(`^(.+)_cnn_epoch(\d+)_lr([^_]+)$`)

// Configuration identifies one CNN sweep run. It is a value type and is never
// mutated after NewConfiguration returns it.
type Configuration struct {
	Dataset      string  `json:"dataset" yaml:"dataset"`
	Epochs       int     `json:"epochs" yaml:"epochs"`
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
}

func NewConfiguration(dataset string, epochs int, learningRate float64) (Configuration, error) {
	c := Configuration{
		Dataset:      dataset,
		Epochs:       epochs,
		LearningRate: learningRate,
	}
	if err := c.Validate(); err != nil {
		return Configuration{}, err
	}
	return c, nil
}

func (c Configuration) Validate() error {
	if c.Dataset == "" {
		return errors.Wrap(ErrInvalidConfiguration, "dataset is required")
	}
	if c.Epochs < 1 {
		return errors.Wrapf(ErrInvalidConfiguration, "epoch count must be positive, got %d", c.Epochs)
	}
	if !(c.LearningRate > 0) {
		return errors.Wrapf(ErrInvalidConfiguration, "learning rate must be positive, got %v", c.LearningRate)
	}
	return nil
}

// BaseName is the file name stem of the run's result record, without suffix.
func (c Configuration) BaseName() string {
	return fmt.Sprintf("%s_cnn_epoch%d_lr%s", c.Dataset, c.Epochs, FormatDecimal(c.LearningRate))
}

func (c Configuration) String() string {
	return c.BaseName()
}

// ParseBaseName recovers a Configuration from a result record file name stem.
func ParseBaseName(name string) (Configuration, error) {
	m := baseNamePattern.FindStringSubmatch(name)
	if m == nil {
		return Configuration{}, errors.Errorf("invalid result name: %s (expected {dataset}_cnn_epoch{E}_lr{LR})", name)
	}

	epochs, err := strconv.Atoi(m[2])
	if err != nil {
		return Configuration{}, errors.Wrapf(err, "invalid epoch count in %s", name)
	}
	lr, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return Configuration{}, errors.Wrapf(err, "invalid learning rate in %s", name)
	}

	return NewConfiguration(m[1], epochs, lr)
}
