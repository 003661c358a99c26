package dataset

import (
	"path/filepath"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Flat is a matrix of raw flattened images and their labels.
type Flat struct {
	X [][]float64
	Y []int
}

// LoadFlatClasses reads <root>/<split>/<class>/* for each class, labeling
// images by the class position. Every image must have the same dimensions;
// no resizing is applied.
func LoadFlatClasses(root, split string, classes []string) (Flat, error) {
	var (
		out  Flat
		dims [2]int
	)
	for label, class := range classes {
		paths, err := listImages(filepath.Join(root, split, class))
		if err != nil {
			return Flat{}, err
		}
		for _, p := range paths {
			img, err := decodeImage(p)
			if err != nil {
				return Flat{}, err
			}

			b := img.Bounds()
			if len(out.X) == 0 {
				dims = [2]int{b.Dx(), b.Dy()}
			} else if dims != [2]int{b.Dx(), b.Dy()} {
				return Flat{}, errors.Wrapf(ErrShapeMismatch, "%s is %dx%d, expected %dx%d", p, b.Dx(), b.Dy(), dims[0], dims[1])
			}

			out.X = append(out.X, Flatten(img))
			out.Y = append(out.Y, label)
		}
	}

	if len(out.X) == 0 {
		return Flat{}, errors.Wrapf(ErrEmptyDataset, "no %s images for %v in %s", split, classes, root)
	}

	klog.V(2).InfoS("Loaded flattened images", "root", root, "split", split, "classes", classes, "images", len(out.X))
	return out, nil
}
