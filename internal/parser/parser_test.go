package parser

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imishinist/tuneparams/internal/models"
	"github.com/imishinist/tuneparams/internal/sink"
)

const yamlPlan = `
cnn:
  datasets: [Pair1_Birdo_Yoshi, Pair3_Luigi_Mario]
  epochs: 25
  learning_rates: [0.0005, 0.002, 0.005]
knn:
  pairs:
    - [Birdo, Yoshi]
    - [Mario, Luigi]
  neighbors:
    min: 1
    max: 5
`

func TestParseYAMLPlan(t *testing.T) {
	plan, err := ParseYAMLPlan(strings.NewReader(yamlPlan))
	require.NoError(t, err)

	require.NotNil(t, plan.CNN)
	assert.Equal(t, []string{"Pair1_Birdo_Yoshi", "Pair3_Luigi_Mario"}, plan.CNN.Datasets)
	assert.Equal(t, 25, plan.CNN.Epochs)
	assert.Equal(t, []float64{0.0005, 0.002, 0.005}, plan.CNN.LearningRates)

	require.NotNil(t, plan.KNN)
	assert.Equal(t, []models.Pair{{"Birdo", "Yoshi"}, {"Mario", "Luigi"}}, plan.KNN.Pairs)
	assert.Equal(t, models.ParameterRange[int]{Min: 1, Max: 5}, plan.KNN.Neighbors)
}

func TestParseYAMLPlanRejectsUnknownFields(t *testing.T) {
	_, err := ParseYAMLPlan(strings.NewReader("cnn:\n  epoch: 3\n"))
	assert.Error(t, err)
}

func TestParseJSONPlan(t *testing.T) {
	plan, err := ParseJSONPlan(strings.NewReader(`{"knn": {"pairs": [["Peach", "Rosalina"]], "neighbors": {"min": 2, "max": 4}}}`))
	require.NoError(t, err)

	assert.Nil(t, plan.CNN)
	require.NotNil(t, plan.KNN)
	assert.Equal(t, models.Pair{"Peach", "Rosalina"}, plan.KNN.Pairs[0])
	assert.Equal(t, []int{2, 3, 4}, plan.KNN.Neighbors.Steps(1))
}

func TestLoadPlanFileByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlPlan), 0o644))

	plan, err := LoadPlanFile(path)
	require.NoError(t, err)
	assert.Equal(t, 25, plan.CNN.Epochs)

	bad := filepath.Join(dir, "plan.toml")
	require.NoError(t, os.WriteFile(bad, []byte(""), 0o644))
	_, err = LoadPlanFile(bad)
	assert.ErrorContains(t, err, "unsupported plan format")
}

func TestParseDumpReadsSinkOutput(t *testing.T) {
	var m models.RunMetrics
	m.Append(models.PhaseTrain, 0.5)
	m.Append(models.PhaseVal, 0.75)
	m.Append(models.PhaseTrain, 0.875)
	m.Append(models.PhaseVal, 1)

	var buf bytes.Buffer
	require.NoError(t, sink.WriteDump(&buf, m))

	got, err := ParseDump(&buf)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestParseDumpErrors(t *testing.T) {
	tests := map[string]string{
		"missing series": "train_acc: [0.5]\ntrain_err: [0.5]\ntest_acc: [0.5]\n",
		"unknown series": "val_acc: [0.5]\n",
		"bad value":      "train_acc: [x]\n",
		"no brackets":    "train_acc: 0.5\n",
		"duplicate":      "train_acc: [0.5]\ntrain_acc: [0.5]\n",
		"uneven":         "train_acc: [0.5]\ntrain_err: [0.5]\ntest_acc: [0.5, 1.0]\ntest_err: [0.5, 0.0]\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDump(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestLoadRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "PairA_cnn_epoch1_lr0.001.txt")
	require.NoError(t, os.WriteFile(path, []byte("train_acc: [0.5]\ntrain_err: [0.5]\ntest_acc: [0.75]\ntest_err: [0.25]\n"), 0o644))

	rec, err := LoadRecord(path)
	require.NoError(t, err)
	assert.Equal(t, models.Configuration{Dataset: "PairA", Epochs: 1, LearningRate: 0.001}, rec.Config)
	assert.Equal(t, 0.75, rec.BestValAcc)
	assert.Empty(t, rec.PlotPath)

	mismatch := filepath.Join(dir, "PairA_cnn_epoch2_lr0.001.txt")
	require.NoError(t, os.WriteFile(mismatch, []byte("train_acc: [0.5]\ntrain_err: [0.5]\ntest_acc: [0.75]\ntest_err: [0.25]\n"), 0o644))
	_, err = LoadRecord(mismatch)
	assert.Error(t, err)
}
