package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func datadirCmd(a *app) *cobra.Command {
	var dataset string

	c := &cobra.Command{
		Use:   "datadir",
		Short: "Print where datasets are stored, or list a cached dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if dataset == "" {
				fmt.Fprintf(out, "Datasets are stored in: %q\n", a.cache.Dirs())
				return nil
			}

			files, err := a.cache.List(dataset)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(out, f)
			}
			return nil
		},
	}

	c.Flags().StringVarP(&dataset, "dataset", "d", "", "dataset directory to list NIfTI files from")
	return c
}
