package dataset

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Batch is a group of inputs with their labels.
type Batch struct {
	Inputs [][]float64
	Labels []int
}

func (b Batch) Size() int {
	return len(b.Labels)
}

// Loader splits a dataset into batches, reshuffling on every pass when
// Shuffle is set.
type Loader struct {
	data      *ImageFolder
	batchSize int
	shuffle   bool
	rng       *rand.Rand
}

func NewLoader(data *ImageFolder, batchSize int, shuffle bool, rng *rand.Rand) (*Loader, error) {
	if batchSize < 1 {
		return nil, errors.Errorf("invalid batch size %d", batchSize)
	}
	if data == nil || data.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	if shuffle && rng == nil {
		return nil, errors.New("shuffling loader needs a random source")
	}
	return &Loader{data: data, batchSize: batchSize, shuffle: shuffle, rng: rng}, nil
}

// Len is the number of samples in the underlying dataset.
func (l *Loader) Len() int {
	return l.data.Len()
}

func (l *Loader) NumBatches() int {
	return (l.data.Len() + l.batchSize - 1) / l.batchSize
}

func (l *Loader) Batches() ([]Batch, error) {
	order := make([]int, l.data.Len())
	for i := range order {
		order[i] = i
	}
	if l.shuffle {
		l.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	batches := make([]Batch, 0, l.NumBatches())
	for start := 0; start < len(order); start += l.batchSize {
		end := min(start+l.batchSize, len(order))
		b := Batch{
			Inputs: make([][]float64, 0, end-start),
			Labels: make([]int, 0, end-start),
		}
		for _, idx := range order[start:end] {
			s := l.data.Samples[idx]
			b.Inputs = append(b.Inputs, s.Input)
			b.Labels = append(b.Labels, s.Label)
		}
		batches = append(batches, b)
	}
	return batches, nil
}
