package knn

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imishinist/tuneparams/internal/dataset"
	"github.com/imishinist/tuneparams/internal/models"
	"github.com/imishinist/tuneparams/internal/sink"
)

// separable has 4 points per class around (0,0) and (10,10).
func separable() dataset.Flat {
	return dataset.Flat{
		X: [][]float64{
			{0, 0}, {0, 1}, {1, 0}, {1, 1},
			{10, 10}, {10, 11}, {11, 10}, {11, 11},
		},
		Y: []int{0, 0, 0, 0, 1, 1, 1, 1},
	}
}

func TestTuneSeparableHasZeroError(t *testing.T) {
	data := separable()
	curve, err := Tune(data, data, []int{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, curve.K)
	require.Len(t, curve.Err, 3)
	assert.Contains(t, curve.Err, 0.0)
	assert.Equal(t, 0.0, curve.Err[0])
}

func TestTuneMatchesPerKClassifier(t *testing.T) {
	train := dataset.Flat{
		X: [][]float64{{0}, {1}, {2}, {3}, {4}, {5}},
		Y: []int{0, 1, 0, 1, 1, 0},
	}
	test := dataset.Flat{
		X: [][]float64{{0.4}, {2.6}, {4.9}, {1.5}},
		Y: []int{0, 1, 0, 1},
	}
	ks := []int{1, 2, 3, 4, 5, 6}

	curve, err := Tune(train, test, ks)
	require.NoError(t, err)

	for i, k := range ks {
		clf, err := Fit(k, train.X, train.Y)
		require.NoError(t, err)
		pred, err := clf.Predict(test.X)
		require.NoError(t, err)
		assert.Equal(t, 1-Accuracy(test.Y, pred), curve.Err[i], "k=%d", k)
	}
}

func TestNeighborsKeepTrainingOrderOnTies(t *testing.T) {
	train := [][]float64{{1}, {1}, {-1}, {0}, {1}, {-1}}
	order, err := neighbors(train, []float64{0})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 0, 1, 2, 4, 5}, order)
}

func TestVoteTieGoesToLowestLabel(t *testing.T) {
	clf, err := Fit(2, [][]float64{{0}, {2}}, []int{1, 0})
	require.NoError(t, err)

	pred, err := clf.Predict([][]float64{{1}})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, pred)
}

func TestFitValidation(t *testing.T) {
	_, err := Fit(0, [][]float64{{0}}, []int{0})
	assert.Error(t, err)
	_, err = Fit(2, [][]float64{{0}}, []int{0})
	assert.Error(t, err)
	_, err = Fit(1, [][]float64{{0}, {0, 1}}, []int{0, 1})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	clf, err := Fit(1, [][]float64{{0}}, []int{0})
	require.NoError(t, err)
	_, err = clf.Predict([][]float64{{0, 1}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func writeSquare(t *testing.T, path string, c color.Color) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func corpus(t *testing.T) string {
	root := t.TempDir()
	shades := []uint8{200, 220, 240, 255}
	for _, split := range []string{"train", "val"} {
		for i, s := range shades {
			name := string(rune('a'+i)) + ".png"
			writeSquare(t, filepath.Join(root, split, "Mario", name), color.RGBA{R: s, A: 255})
			writeSquare(t, filepath.Join(root, split, "Luigi", name), color.RGBA{G: s, A: 255})
		}
	}
	return root
}

func TestTunerRunAndSave(t *testing.T) {
	root := corpus(t)
	plan := models.KNNPlan{
		Pairs:     []models.Pair{{"Mario", "Luigi"}},
		Neighbors: models.ParameterRange[int]{Min: 1, Max: 3},
	}

	curves, err := (&Tuner{Root: root}).Run(plan)
	require.NoError(t, err)
	require.Len(t, curves, 1)
	assert.Equal(t, models.Pair{"Mario", "Luigi"}, curves[0].Pair)
	assert.Equal(t, []float64{0, 0, 0}, curves[0].Err)

	out := t.TempDir()
	plotPath, dumpPath, err := Save(out, curves)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "knn_error.png"), plotPath)

	dump, err := os.ReadFile(dumpPath)
	require.NoError(t, err)
	assert.Equal(t, "(Mario, Luigi) k: [1, 2, 3]\n(Mario, Luigi) test_err: [0.0, 0.0, 0.0]\n", string(dump))

	_, _, err = Save(filepath.Join(out, "missing"), curves)
	assert.ErrorIs(t, err, sink.ErrOutputDirMissing)
}

func TestTunerRunMissingClass(t *testing.T) {
	root := corpus(t)
	plan := models.KNNPlan{
		Pairs:     []models.Pair{{"Peach", "Rosalina"}},
		Neighbors: models.ParameterRange[int]{Min: 1, Max: 2},
	}

	_, err := (&Tuner{Root: root}).Run(plan)
	assert.Error(t, err)
}

func TestWriteDumpMultiplePairs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDump(&buf, []Curve{
		{Pair: models.Pair{"A", "B"}, K: []int{1}, Err: []float64{0.5}},
		{Pair: models.Pair{"C", "D"}, K: []int{1}, Err: []float64{0.25}},
	}))
	assert.Equal(t, "(A, B) k: [1]\n(A, B) test_err: [0.5]\n(C, D) k: [1]\n(C, D) test_err: [0.25]\n", buf.String())
}
