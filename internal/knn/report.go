package knn

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"github.com/imishinist/tuneparams/internal/sink"
)

const (
	FigureTitle = "KNN: Test error vs. num_neighbors"
	BaseName    = "knn_error"
)

// Save writes the comparison figure (one panel per pair) and a text dump
// into dir, which must already exist.
func Save(dir string, curves []Curve) (plotPath, dumpPath string, err error) {
	if len(curves) == 0 {
		return "", "", errors.New("no curves to save")
	}
	if err := sink.CheckDir(dir); err != nil {
		return "", "", err
	}

	plotPath = filepath.Join(dir, BaseName+sink.PlotSuffix)
	dumpPath = filepath.Join(dir, BaseName+sink.DumpSuffix)

	row := make([]*plot.Plot, len(curves))
	for i, c := range curves {
		p := plot.New()
		p.Title.Text = c.Pair.String()
		p.X.Label.Text = "k"
		p.Y.Label.Text = "test error"

		pts := make(plotter.XYs, len(c.K))
		for j := range c.K {
			pts[j].X = float64(c.K[j])
			pts[j].Y = c.Err[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", "", errors.Wrapf(err, "failed to plot %s", c.Pair)
		}
		p.Add(line)
		row[i] = p
	}
	if err := sink.SaveGrid(plotPath, [][]*plot.Plot{row}, FigureTitle); err != nil {
		return "", "", err
	}

	f, err := os.Create(dumpPath)
	if err != nil {
		return "", "", errors.Wrapf(err, "failed to create %s", dumpPath)
	}
	if err := WriteDump(f, curves); err != nil {
		f.Close()
		return "", "", err
	}
	return plotPath, dumpPath, f.Close()
}

// WriteDump writes two lines per pair: the neighbor counts and their errors.
func WriteDump(w io.Writer, curves []Curve) error {
	bw := bufio.NewWriter(w)
	for _, c := range curves {
		ks := make([]string, len(c.K))
		for i, k := range c.K {
			ks[i] = strconv.Itoa(k)
		}
		fmt.Fprintf(bw, "%s k: [%s]\n", c.Pair, strings.Join(ks, ", "))
		fmt.Fprintf(bw, "%s test_err: %s\n", c.Pair, sink.FormatSeries(c.Err))
	}
	return errors.Wrap(bw.Flush(), "failed to write knn dump")
}
