// Package mdplot renders per-frame series from trajectory analyses,
// such as RMSD against a reference, to image files.
package mdplot

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SeriesOptions controls the rendering of a per-frame series.
type SeriesOptions struct {
	Title string
	// XLabel and YLabel default to "Frame" and "RMSD (A)".
	XLabel string
	YLabel string
	// Stride rescales the x axis when the series came from a strided
	// read, so that x values are original frame numbers. Zero or one
	// leaves the axis as emission indexes.
	Stride int
	// Begin offsets the x axis by the frames skipped at the start.
	Begin int
}

// DefaultSeriesOptions returns options for an RMSD-per-frame plot.
func DefaultSeriesOptions() *SeriesOptions {
	return &SeriesOptions{XLabel: "Frame", YLabel: "RMSD (A)"}
}

// Series plots vals against frame number and saves the result to
// filename. The format is taken from the extension; ".png" is appended
// when there is none.
func Series(vals []float64, filename string, o *SeriesOptions) error {
	if len(vals) == 0 {
		return fmt.Errorf("mdplot: nothing to plot")
	}
	if o == nil {
		o = DefaultSeriesOptions()
	}
	p := plot.New()
	p.Title.Text = o.Title
	p.Title.Padding = 3 * vg.Millimeter
	p.X.Label.Text = o.XLabel
	p.Y.Label.Text = o.YLabel
	if p.X.Label.Text == "" {
		p.X.Label.Text = "Frame"
	}
	if p.Y.Label.Text == "" {
		p.Y.Label.Text = "RMSD (A)"
	}
	p.Add(plotter.NewGrid())
	stride := o.Stride
	if stride < 1 {
		stride = 1
	}
	pts := make(plotter.XYs, len(vals))
	for i, v := range vals {
		pts[i].X = float64(o.Begin + i*stride)
		pts[i].Y = v
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("mdplot: %w", err)
	}
	l.LineStyle.Width = vg.Points(1)
	l.LineStyle.Color = color.RGBA{R: 30, G: 100, B: 200, A: 255}
	p.Add(l)
	if filepath.Ext(filename) == "" {
		filename += ".png"
	}
	if err := p.Save(15*vg.Centimeter, 10*vg.Centimeter, filename); err != nil {
		return fmt.Errorf("mdplot: %w", err)
	}
	return nil
}
