// Package visualize renders exported predictions as histograms.
package visualize

import (
	"fmt"
	"math"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/lucidfrontier45/silva/export"
	"github.com/lucidfrontier45/silva/pkg/errors"
	"github.com/lucidfrontier45/silva/pkg/log"
)

// DefaultBins is the histogram bin count.
const DefaultBins = 20

// Plot size.
var (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

// PlotScores draws one histogram per column of scores and saves it to path.
// The image format follows the file extension (.png, .svg, .pdf, ...).
// Non-finite values are skipped.
func PlotScores(path string, scores mat.Matrix, title string) error {
	rows, cols := scores.Dims()
	if rows == 0 || cols == 0 {
		return errors.ErrEmptyData
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "raw score"
	p.Y.Label.Text = "count"

	for j := 0; j < cols; j++ {
		values := make(plotter.Values, 0, rows)
		for i := 0; i < rows; i++ {
			v := scores.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			values = append(values, v)
		}
		if len(values) == 0 {
			return errors.NewValueError("PlotScores", fmt.Sprintf("column %d has no finite values", j))
		}
		h, err := plotter.NewHist(values, DefaultBins)
		if err != nil {
			return errors.Wrapf(err, "failed to bin column %d", j)
		}
		h.FillColor = plotutil.Color(j)
		p.Add(h)
		if cols > 1 {
			p.Legend.Add(fmt.Sprintf("class %d", j), h)
		}
	}
	if cols > 1 {
		p.Legend.Top = true
	}

	if err := p.Save(Width, Height, path); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	log.GetLoggerWithName("visualize").Debug("Plot saved",
		log.OperationKey, log.OperationPlot,
		log.PathKey, path,
		log.SamplesKey, rows,
		log.OutputsKey, cols,
	)
	return nil
}

// PlotDir plots the y.csv of an exported task directory. The title is the
// directory's base name.
func PlotDir(dir, out string) error {
	scores, err := export.ReadCSV(filepath.Join(dir, export.PredictionsFile))
	if err != nil {
		return err
	}
	return PlotScores(out, scores, filepath.Base(filepath.Clean(dir)))
}
