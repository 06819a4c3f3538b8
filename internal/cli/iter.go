package cli

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"niimgs/pkg/nifti"
	"niimgs/pkg/volume"
)

func iterCmd(a *app) *cobra.Command {
	var (
		plot   bool
		dir    string
		prefix string
	)

	c := &cobra.Command{
		Use:   "iter <file>",
		Short: "Loop over the frames of an image, one at a time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := nifti.Open(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			rule := strings.Repeat("#", 79)
			it := volume.IterFrames(seq)
			for it.Next() {
				i, frame := it.Index(), it.Frame()
				fmt.Fprintln(w, rule)
				fmt.Fprintf(w, "frame %d/%d\n%v\n", i, seq.Len(), frame)
				fmt.Fprintln(w, volume.Summarize(frame))

				if plot {
					name := a.figurePath(dir, fmt.Sprintf("%s_%03d", prefix, i))
					if err := a.plotFrame(frame, name, fmt.Sprintf("frame %d", i)); err != nil {
						return err
					}
				}
			}
			if err := it.Err(); err != nil {
				return err
			}

			log.WithFields(log.Fields{
				"file":   args[0],
				"frames": seq.Len(),
			}).Info("Iterated frames")
			return nil
		},
	}

	c.Flags().BoolVar(&plot, "plot", false, "save one heat map figure per frame")
	c.Flags().StringVar(&dir, "plot-dir", "", "figure directory (default from config output.dir)")
	c.Flags().StringVar(&prefix, "prefix", "figure", "figure file name prefix")
	return c
}
