package nn

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Classifier is a frozen backbone followed by a trainable linear head.
type Classifier struct {
	backbone Backbone
	head     *Linear
	training bool
}

// NewClassifier attaches a fresh head with one output per class.
func NewClassifier(backbone Backbone, classes int, rng *rand.Rand) (*Classifier, error) {
	if classes < 2 {
		return nil, errors.Errorf("classifier needs at least 2 classes, got %d", classes)
	}
	return &Classifier{
		backbone: backbone,
		head:     NewLinear("fc", backbone.Dim(), classes, rng),
		training: true,
	}, nil
}

func (c *Classifier) SetTraining(training bool) {
	c.training = training
	if !training {
		c.head.Release()
	}
}

func (c *Classifier) Training() bool {
	return c.training
}

func (c *Classifier) Parameters() []*Parameter {
	return c.head.Parameters()
}

// Forward returns one logit vector per input.
func (c *Classifier) Forward(inputs [][]float64) ([][]float64, error) {
	feats := make([][]float64, len(inputs))
	for i, x := range inputs {
		f, err := c.backbone.Features(x)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to extract features of input %d", i)
		}
		feats[i] = f
	}
	return c.head.Forward(feats, c.training)
}

func (c *Classifier) Backward(gradLogits [][]float64) error {
	if !c.training {
		return errors.New("backward called in evaluation mode")
	}
	return c.head.Backward(gradLogits)
}

func (c *Classifier) StateDict() StateDict {
	return Snapshot(c.Parameters())
}

func (c *Classifier) LoadStateDict(sd StateDict) error {
	return Restore(c.Parameters(), sd)
}

// Release frees the activations kept for the backward pass.
func (c *Classifier) Release() {
	c.head.Release()
}
