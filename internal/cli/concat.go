package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"niimgs/pkg/nifti"
	"niimgs/pkg/volume"
)

func concatCmd(a *app) *cobra.Command {
	var (
		out  string
		lazy bool
	)

	c := &cobra.Command{
		Use:   "concat -o <out> <file>...",
		Short: "Stack 3D (or 4D) images into one 4D image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				seq *volume.Sequence
				err error
			)
			if lazy {
				seq, err = nifti.OpenSeries(args)
			} else {
				seq, err = concatFiles(args)
			}
			if err != nil {
				return err
			}

			if err := nifti.Save(out, seq); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s image to %s\n", formatDims(volume.Dims(seq)), out)
			return nil
		},
	}

	c.Flags().StringVarP(&out, "out", "o", "", "output .nii or .nii.gz file")
	c.Flags().BoolVar(&lazy, "lazy", false, "read 3D inputs one at a time while writing")
	_ = c.MarkFlagRequired("out")
	return c
}

// concatFiles loads every file and stacks their frames in argument order.
// A 4D input contributes all of its frames.
func concatFiles(paths []string) (*volume.Sequence, error) {
	var frames []*volume.Frame
	for _, path := range paths {
		img, err := nifti.Load(path)
		if err != nil {
			return nil, err
		}
		switch img := img.(type) {
		case *volume.Frame:
			frames = append(frames, img)
		case *volume.Sequence:
			for f, err := range img.All() {
				if err != nil {
					return nil, err
				}
				frames = append(frames, f)
			}
		}
	}
	return volume.ConcatFrames(frames...)
}
