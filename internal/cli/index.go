package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"niimgs/pkg/nifti"
	"niimgs/pkg/visualization"
	"niimgs/pkg/volume"
)

func indexCmd(a *app) *cobra.Command {
	var (
		index     int
		out       string
		plot      bool
		slicesDir string
		region    []int
	)

	c := &cobra.Command{
		Use:   "index <file>",
		Short: "Extract one 3D frame of a 4D image (negative indexes count from the end)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := nifti.Open(args[0])
			if err != nil {
				return err
			}
			frame, err := volume.GetFrame(seq, index)
			if err != nil {
				return err
			}

			if len(region) > 0 {
				if len(region) != 6 {
					return fmt.Errorf("--region takes 6 values (x,y,z,sizeX,sizeY,sizeZ), got %d", len(region))
				}
				frame, err = visualization.NewViewer(frame).ExtractRegion(region[0], region[1], region[2], region[3], region[4], region[5])
				if err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "frame %d of %s: shape %v\n", index, formatDims(volume.Dims(seq)), frame.Shape())
			fmt.Fprintln(w, volume.Summarize(frame))

			if out != "" {
				if err := nifti.Save(out, frame); err != nil {
					return err
				}
				fmt.Fprintf(w, "saved frame to %s\n", out)
			}

			if plot {
				name := a.figurePath("", fmt.Sprintf("frame_%03d", index))
				if err := a.plotFrame(frame, name, fmt.Sprintf("frame %d", index)); err != nil {
					return err
				}
				fmt.Fprintf(w, "saved figure to %s\n", name)
			}

			if slicesDir != "" {
				viewer := visualization.NewViewer(frame)
				if err := viewer.SaveSliceSequence(a.cfg.Output.Axis, slicesDir, a.cfg.Output.Format); err != nil {
					return err
				}
				fmt.Fprintf(w, "saved %s-axis slices to %s\n", a.cfg.Output.Axis, slicesDir)
			}
			return nil
		},
	}

	c.Flags().IntVarP(&index, "frame", "f", 0, "frame index; -1 is the last frame")
	c.Flags().StringVarP(&out, "out", "o", "", "write the frame to this .nii or .nii.gz file")
	c.Flags().BoolVar(&plot, "plot", false, "save a heat map figure of the frame")
	c.Flags().IntSliceVar(&region, "region", nil, "crop the frame to x,y,z,sizeX,sizeY,sizeZ voxels")
	c.Flags().StringVar(&slicesDir, "slices-dir", "", "save every slice of the frame along the axis to this directory")
	return c
}
