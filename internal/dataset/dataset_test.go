package dataset

import (
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func makeSplits(t *testing.T) string {
	root := t.TempDir()
	for _, split := range []string{"train", "val"} {
		writePNG(t, filepath.Join(root, "PairA", split, "b", "1.png"), 8, 8, blue)
		writePNG(t, filepath.Join(root, "PairA", split, "b", "2.png"), 8, 8, blue)
		writePNG(t, filepath.Join(root, "PairA", split, "a", "1.png"), 8, 8, red)
		writePNG(t, filepath.Join(root, "PairA", split, "a", "2.png"), 8, 8, red)
	}
	return root
}

func TestLoadSplits(t *testing.T) {
	root := makeSplits(t)
	tf := ResizeNormalize(4, ImageNetMean, ImageNetStd)

	train, val, err := LoadSplits(root, "PairA", tf, tf)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, train.Classes)
	assert.Equal(t, 4, train.Len())
	assert.Equal(t, 4, val.Len())
	assert.Equal(t, 0, train.Samples[0].Label)
	assert.Equal(t, 1, train.Samples[3].Label)
	assert.Len(t, train.Samples[0].Input, 3*4*4)

	// red pixel in the first channel plane
	assert.InDelta(t, (1-0.485)/0.229, train.Samples[0].Input[0], 0.05)
}

func TestLoadSplitsClassMismatch(t *testing.T) {
	root := makeSplits(t)
	writePNG(t, filepath.Join(root, "PairA", "val", "c", "1.png"), 8, 8, red)

	tf := ResizeNormalize(4, ImageNetMean, ImageNetStd)
	_, _, err := LoadSplits(root, "PairA", tf, tf)
	assert.ErrorIs(t, err, ErrClassMismatch)
}

func TestLoadImageFolderErrors(t *testing.T) {
	tf := ResizeNormalize(4, ImageNetMean, ImageNetStd)

	_, err := LoadImageFolder(filepath.Join(t.TempDir(), "missing"), tf)
	assert.Error(t, err)

	empty := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(empty, "a"), 0o755))
	_, err = LoadImageFolder(empty, tf)
	assert.ErrorIs(t, err, ErrEmptyDataset)

	corrupt := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(corrupt, "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(corrupt, "a", "x.jpg"), []byte("not an image"), 0o644))
	_, err = LoadImageFolder(corrupt, tf)
	assert.Error(t, err)
}

func TestLoaderBatches(t *testing.T) {
	data := &ImageFolder{}
	for i := 0; i < 5; i++ {
		data.Samples = append(data.Samples, Sample{Input: []float64{float64(i)}, Label: i % 2})
	}

	l, err := NewLoader(data, 2, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, l.NumBatches())
	assert.Equal(t, 5, l.Len())

	batches, err := l.Batches()
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, []int{0, 1}, batches[0].Labels)
	assert.Equal(t, 1, batches[2].Size())

	_, err = NewLoader(data, 0, false, nil)
	assert.Error(t, err)
	_, err = NewLoader(data, 2, true, nil)
	assert.Error(t, err)
}

func TestLoaderShuffleIsSeeded(t *testing.T) {
	data := &ImageFolder{}
	for i := 0; i < 16; i++ {
		data.Samples = append(data.Samples, Sample{Input: []float64{float64(i)}, Label: i})
	}

	order := func(seed int64) []int {
		l, err := NewLoader(data, 4, true, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		batches, err := l.Batches()
		require.NoError(t, err)

		var labels []int
		for _, b := range batches {
			labels = append(labels, b.Labels...)
		}
		return labels
	}

	assert.Equal(t, order(3), order(3))
	assert.ElementsMatch(t, order(3), order(4))
}

func TestFlatten(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	img.Set(1, 0, color.RGBA{R: 4, G: 5, B: 6, A: 255})

	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, Flatten(img))
}

func TestLoadFlatClasses(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "train", "Mario", "1.png"), 2, 2, red)
	writePNG(t, filepath.Join(root, "train", "Luigi", "1.png"), 2, 2, blue)

	flat, err := LoadFlatClasses(root, "train", []string{"Mario", "Luigi"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, flat.Y)
	assert.Len(t, flat.X[0], 12)
	assert.Equal(t, 255.0, flat.X[0][0])
	assert.Equal(t, 255.0, flat.X[1][2])

	writePNG(t, filepath.Join(root, "train", "Luigi", "2.png"), 3, 2, blue)
	_, err = LoadFlatClasses(root, "train", []string{"Mario", "Luigi"})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = LoadFlatClasses(root, "val", []string{"Mario", "Luigi"})
	assert.Error(t, err)
}
