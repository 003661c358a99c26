// Package dataset loads labeled images laid out as <root>/<class>/<image>.
package dataset

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"k8s.io/klog/v2"
)

var (
	ErrEmptyDataset   = errors.New("dataset has no images")
	ErrClassMismatch  = errors.New("class folders differ between splits")
	ErrShapeMismatch  = errors.New("images have different dimensions")
	imageExtensions   = []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"}
	defaultSplitNames = [2]string{"train", "val"}
)

// Sample is one preprocessed image and its class index.
type Sample struct {
	Input []float64
	Label int
	Path  string
}

// ImageFolder is an in-memory labeled dataset. Class indices follow the
// sorted order of the class folder names.
type ImageFolder struct {
	Root    string
	Classes []string
	Samples []Sample
}

func (f *ImageFolder) Len() int {
	return len(f.Samples)
}

// LoadImageFolder decodes every image under root/<class>/ and applies tf.
func LoadImageFolder(root string, tf Transform) (*ImageFolder, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read dataset folder %s", root)
	}

	var classes []string
	for _, e := range entries {
		if e.IsDir() {
			classes = append(classes, e.Name())
		}
	}
	sort.Strings(classes)
	if len(classes) == 0 {
		return nil, errors.Wrapf(ErrEmptyDataset, "no class folders in %s", root)
	}

	folder := &ImageFolder{Root: root, Classes: classes}
	for label, class := range classes {
		paths, err := listImages(filepath.Join(root, class))
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			img, err := decodeImage(p)
			if err != nil {
				return nil, err
			}
			input, err := tf(img)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to transform image %s", p)
			}
			folder.Samples = append(folder.Samples, Sample{Input: input, Label: label, Path: p})
		}
	}

	if len(folder.Samples) == 0 {
		return nil, errors.Wrapf(ErrEmptyDataset, "no images in %s", root)
	}

	klog.V(2).InfoS("Loaded image folder", "root", root, "classes", len(classes), "images", len(folder.Samples))
	return folder, nil
}

// LoadSplits loads <root>/<name>/train and <root>/<name>/val and checks that
// both splits use the same class folders.
func LoadSplits(root, name string, trainTF, valTF Transform) (train, val *ImageFolder, err error) {
	dir := filepath.Join(root, name)

	train, err = LoadImageFolder(filepath.Join(dir, defaultSplitNames[0]), trainTF)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to load %s train split", name)
	}
	val, err = LoadImageFolder(filepath.Join(dir, defaultSplitNames[1]), valTF)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to load %s val split", name)
	}

	if strings.Join(train.Classes, "\x00") != strings.Join(val.Classes, "\x00") {
		return nil, nil, errors.Wrapf(ErrClassMismatch, "%s: train %v, val %v", name, train.Classes, val.Classes)
	}
	return train, val, nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read class folder %s", dir)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !isImage(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func isImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open image %s", path)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode image %s", path)
	}
	return img, nil
}
