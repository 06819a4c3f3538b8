package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"niimgs/pkg/nifti"
	"niimgs/pkg/volume"
)

func infoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Print the shape, affine and statistics of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := nifti.Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, args[0])
			printImage(out, img)
			return nil
		},
	}
}

func printImage(out io.Writer, img volume.Image) {
	switch img := img.(type) {
	case *volume.Frame:
		fmt.Fprintf(out, "3D image, shape %v\n", img.Shape())
		fmt.Fprintf(out, "affine:\n%v\n", img.Affine())
		fmt.Fprintln(out, volume.Summarize(img))
	case *volume.Sequence:
		fmt.Fprintf(out, "4D image, shape %s, %d frames of %v\n", formatDims(volume.Dims(img)), img.Len(), img.FrameShape())
		fmt.Fprintf(out, "affine:\n%v\n", img.Affine())
	}
}

func formatDims(dims []int) string {
	s := "("
	for i, d := range dims {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprint(d)
	}
	return s + ")"
}
