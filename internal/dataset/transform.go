package dataset

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// Transform converts a decoded image into a model input tensor.
type Transform func(image.Image) ([]float64, error)

// ImageNet channel statistics used by pretrained backbones.
var (
	ImageNetMean = [3]float64{0.485, 0.456, 0.406}
	ImageNetStd  = [3]float64{0.229, 0.224, 0.225}
)

// ResizeNormalize scales the image to size x size, maps intensities to [0,1]
// and normalises each channel. The result is a CHW tensor.
func ResizeNormalize(size int, mean, std [3]float64) Transform {
	return func(img image.Image) ([]float64, error) {
		if size < 1 {
			return nil, errors.Errorf("invalid resize target %d", size)
		}

		dst := image.NewRGBA(image.Rect(0, 0, size, size))
		draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

		plane := size * size
		out := make([]float64, 3*plane)
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				c := dst.RGBAAt(x, y)
				i := y*size + x
				out[i] = (float64(c.R)/255 - mean[0]) / std[0]
				out[plane+i] = (float64(c.G)/255 - mean[1]) / std[1]
				out[2*plane+i] = (float64(c.B)/255 - mean[2]) / std[2]
			}
		}
		return out, nil
	}
}

// Flatten returns raw 0-255 intensities row-major with R, G, B interleaved
// per pixel. Alpha is dropped.
func Flatten(img image.Image) []float64 {
	b := img.Bounds()
	out := make([]float64, 0, 3*b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out = append(out, float64(c.R), float64(c.G), float64(c.B))
		}
	}
	return out
}
