package models

import "time"

type Phase string

const (
	PhaseTrain Phase = "train"
	PhaseVal   Phase = "val"
)

// RunMetrics holds the per-epoch curves of one training run. Index i is epoch i+1.
type RunMetrics struct {
	TrainAcc []float64 `json:"train_acc"`
	TrainErr []float64 `json:"train_err"`
	ValAcc   []float64 `json:"test_acc"`
	ValErr   []float64 `json:"test_err"`
}

// Append records one epoch's accuracy for a phase together with its error.
func (m *RunMetrics) Append(phase Phase, acc float64) {
	switch phase {
	case PhaseTrain:
		m.TrainAcc = append(m.TrainAcc, acc)
		m.TrainErr = append(m.TrainErr, 1-acc)
	case PhaseVal:
		m.ValAcc = append(m.ValAcc, acc)
		m.ValErr = append(m.ValErr, 1-acc)
	}
}

// Epochs is the number of completed validation phases.
func (m RunMetrics) Epochs() int {
	return len(m.ValAcc)
}

// Best returns the first epoch (1-based) with the highest validation accuracy.
func (m RunMetrics) Best() (epoch int, acc float64) {
	for i, v := range m.ValAcc {
		if v > acc {
			epoch, acc = i+1, v
		}
	}
	return epoch, acc
}

// Series lists the four curves in dump order.
func (m RunMetrics) Series() []NamedSeries {
	return []NamedSeries{
		{Name: "train_acc", Values: m.TrainAcc},
		{Name: "train_err", Values: m.TrainErr},
		{Name: "test_acc", Values: m.ValAcc},
		{Name: "test_err", Values: m.ValErr},
	}
}

type NamedSeries struct {
	Name   string
	Values []float64
}

// Metric is a single tracked data point.
type Metric struct {
	Key       string    `json:"key"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Step      int64     `json:"step"`
}

// ResultRecord pairs a Configuration with the outcome of its run.
type ResultRecord struct {
	Config     Configuration `json:"config"`
	Metrics    RunMetrics    `json:"metrics"`
	BestEpoch  int           `json:"best_epoch"`
	BestValAcc float64       `json:"best_val_acc"`
	PlotPath   string        `json:"plot_path"`
	DumpPath   string        `json:"dump_path"`
	Device     string        `json:"device,omitempty"`
	SweepID    string        `json:"sweep_id,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
}
