package cli

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/plot/vg"

	"niimgs/pkg/visualization"
	"niimgs/pkg/volume"
)

// plotFrame saves a heat map of frame cut through its strongest voxel
// along the configured axis.
func (a *app) plotFrame(frame *volume.Frame, filename, title string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create figure directory: %w", err)
	}

	viewer := visualization.NewViewer(frame)
	axis := a.cfg.Output.Axis
	pos, err := viewer.PeakPosition(axis)
	if err != nil {
		return err
	}

	opts := visualization.PlotOptions{
		Title:  fmt.Sprintf("%s (%s = %d)", title, axis, pos),
		Size:   vg.Length(a.cfg.Plot.SizeInches) * vg.Inch,
		Colors: a.cfg.Plot.Colors,
	}
	if err := viewer.PlotCut(axis, pos, filename, opts); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"file": filename,
		"axis": axis,
		"cut":  pos,
	}).Debug("Saved figure")
	return nil
}

// figurePath joins name and the configured format under dir, defaulting
// dir to the configured output directory.
func (a *app) figurePath(dir, name string) string {
	if dir == "" {
		dir = a.cfg.Output.Dir
	}
	return filepath.Join(dir, name+"."+a.cfg.Output.Format)
}
