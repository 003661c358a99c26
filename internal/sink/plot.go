package sink

import (
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/imishinist/tuneparams/internal/models"
)

const panelWidth, panelHeight = 6 * vg.Inch, 4 * vg.Inch

// epochXYs pairs values with epoch numbers starting at 1.
func epochXYs(values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
	}
	return pts
}

func curvePlot(title, ylabel string, train, test []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "num_epochs"
	p.Y.Label.Text = ylabel

	if err := plotutil.AddLinePoints(p, "Train", epochXYs(train), "Test", epochXYs(test)); err != nil {
		return nil, err
	}
	return p, nil
}

// SaveCurves writes a PNG with the accuracy panel above the error panel.
func SaveCurves(path string, m models.RunMetrics) error {
	acc, err := curvePlot("CNN: accurracy vs. num_epochs", "accurracy", m.TrainAcc, m.ValAcc)
	if err != nil {
		return errors.Wrap(err, "failed to build accuracy plot")
	}
	errPlot, err := curvePlot("CNN: test error vs. num_epochs", "test error", m.TrainErr, m.ValErr)
	if err != nil {
		return errors.Wrap(err, "failed to build error plot")
	}

	return SaveGrid(path, [][]*plot.Plot{{acc}, {errPlot}}, "")
}

// SaveGrid renders plots as a grid of panels into one PNG, with an optional
// figure title above the grid.
func SaveGrid(path string, plots [][]*plot.Plot, title string) error {
	if len(plots) == 0 || len(plots[0]) == 0 {
		return errors.New("no plots to save")
	}

	rows, cols := len(plots), len(plots[0])
	img := vgimg.New(vg.Length(cols)*panelWidth, vg.Length(rows)*panelHeight)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows: rows,
		Cols: cols,
		PadX: vg.Millimeter,
		PadY: vg.Millimeter,
	}
	if title != "" {
		tiles.PadTop = vg.Points(24)

		sty := plots[0][0].Title.TextStyle
		sty.XAlign = draw.XCenter
		sty.YAlign = draw.YTop
		dc.FillText(sty, vg.Point{X: dc.Center().X, Y: dc.Max.Y - vg.Points(4)}, title)
	}

	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j, p := range plots[i] {
			if p != nil {
				p.Draw(canvases[i][j])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to encode %s", path)
	}
	return f.Close()
}
