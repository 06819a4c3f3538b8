package cli

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"niimgs/pkg/config"
	"niimgs/pkg/datasets"
)

// Execute runs the niimgs command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the configuration resolved before any subcommand runs.
type app struct {
	cfg   *config.Config
	cache *datasets.Cache
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var configPath string
	a := &app{}

	cmd := &cobra.Command{
		Use:          "niimgs",
		Short:        "Inspect, index, iterate and concatenate 3D/4D NIfTI images",
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	flags.String("cache-dir", "", "dataset cache root (default $HOME/nilearn_data)")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	flags.String("axis", "", "cut axis for figures: x, y or z")
	flags.String("format", "", "figure format: png or jpg")

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if err := overlay(cfg, cmd); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log.SetOutput(c.ErrOrStderr())
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		log.SetLevel(log.InfoLevel)
		if cfg.Output.Verbose {
			log.SetLevel(log.DebugLevel)
		}

		a.cfg = cfg
		a.cache = datasets.New(cfg.Data.CacheDir)
		log.WithFields(log.Fields{
			"config":   configPath,
			"cacheDir": a.cache.Root,
		}).Debug("Configuration loaded")
		return nil
	}

	cmd.AddCommand(
		datadirCmd(a),
		infoCmd(a),
		indexCmd(a),
		iterCmd(a),
		concatCmd(a),
		configCmd(),
	)
	return cmd
}

// overlay applies NIIMGS_* environment variables and explicitly set flags
// on top of the file configuration, in that order of precedence.
func overlay(cfg *config.Config, root *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix("NIIMGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data.cache_dir", cfg.Data.CacheDir)
	v.SetDefault("output.dir", cfg.Output.Dir)
	v.SetDefault("output.verbose", cfg.Output.Verbose)
	v.SetDefault("output.axis", cfg.Output.Axis)
	v.SetDefault("output.format", cfg.Output.Format)

	bindings := map[string]string{
		"data.cache_dir": "cache-dir",
		"output.verbose": "verbose",
		"output.axis":    "axis",
		"output.format":  "format",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, root.PersistentFlags().Lookup(flag)); err != nil {
			return err
		}
	}

	cfg.Data.CacheDir = v.GetString("data.cache_dir")
	cfg.Output.Dir = v.GetString("output.dir")
	cfg.Output.Verbose = v.GetBool("output.verbose")
	cfg.Output.Axis = strings.ToLower(v.GetString("output.axis"))
	cfg.Output.Format = strings.ToLower(v.GetString("output.format"))
	return nil
}
