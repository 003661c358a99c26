package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepPlanConfigurationsOrder(t *testing.T) {
	plan := SweepPlan{
		Datasets:      []string{"A", "B"},
		Epochs:        3,
		LearningRates: []float64{0.1, 0.01},
	}

	configs, err := plan.Configurations()
	require.NoError(t, err)

	assert.Equal(t, []Configuration{
		{"A", 3, 0.1},
		{"A", 3, 0.01},
		{"B", 3, 0.1},
		{"B", 3, 0.01},
	}, configs)
}

func TestSweepPlanConfigurationsRejectsEmpty(t *testing.T) {
	_, err := SweepPlan{Epochs: 1, LearningRates: []float64{0.1}}.Configurations()
	assert.Error(t, err)

	_, err = SweepPlan{Datasets: []string{"A"}, Epochs: 1}.Configurations()
	assert.Error(t, err)

	_, err = SweepPlan{Datasets: []string{"A"}, Epochs: 0, LearningRates: []float64{0.1}}.Configurations()
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestDefaultPlans(t *testing.T) {
	plan := DefaultSweepPlan()
	configs, err := plan.Configurations()
	require.NoError(t, err)
	assert.Len(t, configs, 12)

	knn := DefaultKNNPlan()
	require.NoError(t, knn.Validate())
	assert.Equal(t, 1, knn.Neighbors.Steps(1)[0])
	assert.Len(t, knn.Neighbors.Steps(1), 19)
}

func TestKNNPlanValidate(t *testing.T) {
	plan := KNNPlan{Pairs: []Pair{{"A", "A"}}, Neighbors: ParameterRange[int]{Min: 1, Max: 3}}
	assert.Error(t, plan.Validate())

	plan = KNNPlan{Pairs: []Pair{{"A", "B"}}, Neighbors: ParameterRange[int]{Min: 0, Max: 3}}
	assert.Error(t, plan.Validate())

	plan = KNNPlan{Pairs: []Pair{{"A", "B"}}, Neighbors: ParameterRange[int]{Min: 4, Max: 3}}
	assert.Error(t, plan.Validate())
}

func TestParameterRangeSteps(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, ParameterRange[int]{Min: 1, Max: 3}.Steps(1))
	assert.Equal(t, []int{1, 3}, ParameterRange[int]{Min: 1, Max: 3}.Steps(2))
	assert.Nil(t, ParameterRange[int]{Min: 3, Max: 1}.Steps(1))
	assert.Equal(t, []int{7}, ParameterRange[int]{Min: 7, Max: 7}.Steps(1))
}

func TestParameterRangeStepsAtTypeLimits(t *testing.T) {
	assert.Equal(t, []int8{125, 126, 127}, ParameterRange[int8]{Min: 125, Max: 127}.Steps(1))
	assert.Equal(t, []int8{120, 125}, ParameterRange[int8]{Min: 120, Max: 127}.Steps(5))
	assert.Equal(t, []int8{-128, -127}, ParameterRange[int8]{Min: -128, Max: -127}.Steps(1))
	assert.Equal(t, []uint8{254, 255}, ParameterRange[uint8]{Min: 254, Max: 255}.Steps(1))
	assert.Len(t, ParameterRange[int8]{Min: -128, Max: 127}.Steps(1), 256)
	assert.True(t, ParameterRange[float64]{Min: 0.5, Max: 1}.Contains(0.75))
}

func TestRunMetricsAppend(t *testing.T) {
	var m RunMetrics
	m.Append(PhaseTrain, 0.5)
	m.Append(PhaseVal, 0.75)
	m.Append(PhaseTrain, 0.75)
	m.Append(PhaseVal, 0.75)

	assert.Equal(t, 2, m.Epochs())
	for i := range m.ValAcc {
		assert.Equal(t, 1-m.ValAcc[i], m.ValErr[i])
		assert.Equal(t, 1-m.TrainAcc[i], m.TrainErr[i])
	}

	epoch, acc := m.Best()
	assert.Equal(t, 1, epoch)
	assert.Equal(t, 0.75, acc)
}
