package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"niimgs/pkg/config"
)

func configCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Manage the niimgs configuration file",
	}
	c.AddCommand(configInitCmd())
	return c
}

func configInitCmd() *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "init <file>",
		Short: "Write a configuration file with default values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
			}
			if err := config.CreateDefaultConfigFile(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote default configuration to %s\n", path)
			return nil
		},
	}

	c.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return c
}
