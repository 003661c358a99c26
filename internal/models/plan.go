package models

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sweep defaults used when no plan file or flags override them.
var (
	DefaultDatasets = []string{
		"Pair1_Birdo_Yoshi",
		"Pair2_Bowser_MiniBowser",
		"Pair3_Luigi_Mario",
		"Pair4_Peach_Rosalina",
	}
	DefaultLearningRates = []float64{0.0001, 0.001, 0.01}
	DefaultPairs         = []Pair{
		{"Birdo", "Yoshi"},
		{"Bowser", "MiniBowser"},
		{"Mario", "Luigi"},
		{"Peach", "Rosalina"},
	}
	DefaultNeighbors = ParameterRange[int]{Min: 1, Max: 19}
)

const DefaultEpochs = 10

// SweepPlan is the CNN grid: every dataset is trained with every learning rate.
type SweepPlan struct {
	Datasets      []string  `json:"datasets" yaml:"datasets"`
	Epochs        int       `json:"epochs" yaml:"epochs"`
	LearningRates []float64 `json:"learning_rates" yaml:"learning_rates"`
}

func DefaultSweepPlan() SweepPlan {
	return SweepPlan{
		Datasets:      append([]string(nil), DefaultDatasets...),
		Epochs:        DefaultEpochs,
		LearningRates: append([]float64(nil), DefaultLearningRates...),
	}
}

// Configurations expands the plan datasets-outer, learning-rates-inner.
func (p SweepPlan) Configurations() ([]Configuration, error) {
	if len(p.Datasets) == 0 {
		return nil, errors.New("sweep plan has no datasets")
	}
	if len(p.LearningRates) == 0 {
		return nil, errors.New("sweep plan has no learning rates")
	}

	configs := make([]Configuration, 0, len(p.Datasets)*len(p.LearningRates))
	for _, ds := range p.Datasets {
		for _, lr := range p.LearningRates {
			c, err := NewConfiguration(ds, p.Epochs, lr)
			if err != nil {
				return nil, err
			}
			configs = append(configs, c)
		}
	}
	return configs, nil
}

// Pair names the two classes of a KNN dataset pair; First gets label 0.
type Pair [2]string

func (p Pair) Classes() []string {
	return []string{p[0], p[1]}
}

func (p Pair) String() string {
	return fmt.Sprintf("(%s, %s)", p[0], p[1])
}

type KNNPlan struct {
	Pairs     []Pair              `json:"pairs" yaml:"pairs"`
	Neighbors ParameterRange[int] `json:"neighbors" yaml:"neighbors"`
}

func DefaultKNNPlan() KNNPlan {
	return KNNPlan{
		Pairs:     append([]Pair(nil), DefaultPairs...),
		Neighbors: DefaultNeighbors,
	}
}

func (p KNNPlan) Validate() error {
	if len(p.Pairs) == 0 {
		return errors.New("knn plan has no pairs")
	}
	for _, pair := range p.Pairs {
		if pair[0] == "" || pair[1] == "" || pair[0] == pair[1] {
			return errors.Errorf("invalid pair %s", pair)
		}
	}
	if p.Neighbors.Min < 1 {
		return errors.Errorf("neighbor count must be positive, got %d", p.Neighbors.Min)
	}
	return p.Neighbors.Validate()
}

// PlanFile is the on-disk layout of a sweep plan.
type PlanFile struct {
	CNN *SweepPlan `json:"cnn,omitempty" yaml:"cnn,omitempty"`
	KNN *KNNPlan   `json:"knn,omitempty" yaml:"knn,omitempty"`
}
