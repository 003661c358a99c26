package nn

import (
	"math"

	"github.com/pkg/errors"
)

// Backbone turns a preprocessed image tensor into a feature vector. Backbones
// are frozen: they expose no trainable parameters.
type Backbone interface {
	Features(x []float64) ([]float64, error)
	Dim() int
}

// PooledBackbone is a fixed feature extractor over a CHW tensor. Each channel
// is split into a Grid x Grid mesh and every cell contributes its mean and
// standard deviation.
type PooledBackbone struct {
	Channels int
	Size     int
	Grid     int
}

func NewPooledBackbone(channels, size, grid int) (*PooledBackbone, error) {
	if channels < 1 || size < 1 || grid < 1 {
		return nil, errors.Errorf("invalid backbone shape: channels=%d size=%d grid=%d", channels, size, grid)
	}
	if grid > size {
		return nil, errors.Errorf("backbone grid %d exceeds image size %d", grid, size)
	}
	return &PooledBackbone{Channels: channels, Size: size, Grid: grid}, nil
}

func (b *PooledBackbone) Dim() int {
	return 2 * b.Channels * b.Grid * b.Grid
}

func (b *PooledBackbone) Features(x []float64) ([]float64, error) {
	plane := b.Size * b.Size
	if len(x) != b.Channels*plane {
		return nil, errors.Wrapf(ErrShapeMismatch, "backbone input has %d values, want %d", len(x), b.Channels*plane)
	}

	feats := make([]float64, 0, b.Dim())
	for c := 0; c < b.Channels; c++ {
		ch := x[c*plane : (c+1)*plane]
		for gy := 0; gy < b.Grid; gy++ {
			y0, y1 := gy*b.Size/b.Grid, (gy+1)*b.Size/b.Grid
			for gx := 0; gx < b.Grid; gx++ {
				x0, x1 := gx*b.Size/b.Grid, (gx+1)*b.Size/b.Grid

				var sum, sq float64
				for y := y0; y < y1; y++ {
					for _, v := range ch[y*b.Size+x0 : y*b.Size+x1] {
						sum += v
						sq += v * v
					}
				}
				n := float64((y1 - y0) * (x1 - x0))
				mean := sum / n
				feats = append(feats, mean, math.Sqrt(math.Max(sq/n-mean*mean, 0)))
			}
		}
	}
	return feats, nil
}
