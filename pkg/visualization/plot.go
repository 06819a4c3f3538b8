package visualization

import (
	"fmt"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotOptions controls PlotCut figures.
type PlotOptions struct {
	Title string
	// Size is the width and height of the square figure.
	Size vg.Length
	// Colors is the number of palette entries.
	Colors int
}

// DefaultPlotOptions returns the options used when none are given.
func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Size: 4 * vg.Inch, Colors: 64}
}

// cutGrid exposes a planar cut as a plotter.GridXYZ in millimetres.
type cutGrid struct {
	values     []float64
	cols, rows int
	dx, dy     float64
}

func (g cutGrid) Dims() (c, r int)   { return g.cols, g.rows }
func (g cutGrid) Z(c, r int) float64 { return g.values[r*g.cols+c] }
func (g cutGrid) X(c int) float64    { return float64(c) * g.dx }
func (g cutGrid) Y(r int) float64    { return float64(r) * g.dy }

// PlotCut renders the cut at position along axis as a heat map and saves
// it to filename. The image format follows the file extension.
func (v *Viewer) PlotCut(axis string, position int, filename string, opts PlotOptions) error {
	values, cols, rows, err := v.Cut(axis, position)
	if err != nil {
		return err
	}
	if opts.Size <= 0 {
		opts.Size = DefaultPlotOptions().Size
	}
	if opts.Colors <= 1 {
		opts.Colors = DefaultPlotOptions().Colors
	}

	grid := cutGrid{values: values, cols: cols, rows: rows}
	grid.dx, grid.dy = v.planeSpacing(axis)
	if grid.dx <= 0 || grid.dy <= 0 {
		grid.dx, grid.dy = 1, 1
	}

	hm := plotter.NewHeatMap(grid, palette.Heat(opts.Colors, 1))
	hm.Min, hm.Max = valueRange(values)
	if hm.Min == hm.Max {
		hm.Max = hm.Min + 1
	}

	p := plot.New()
	p.Title.Text = opts.Title
	if p.Title.Text == "" {
		p.Title.Text = fmt.Sprintf("%s = %d", strings.ToLower(axis), position)
	}
	p.X.Label.Text = "mm"
	p.Y.Label.Text = "mm"
	p.Add(hm)

	if err := p.Save(opts.Size, opts.Size, filename); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", filename, err)
	}
	return nil
}

// planeSpacing returns the voxel sizes along the columns and rows of a cut.
func (v *Viewer) planeSpacing(axis string) (float64, float64) {
	switch strings.ToLower(axis) {
	case "x":
		return v.voxelSize[2], v.voxelSize[1]
	case "y":
		return v.voxelSize[0], v.voxelSize[2]
	default:
		return v.voxelSize[0], v.voxelSize[1]
	}
}
