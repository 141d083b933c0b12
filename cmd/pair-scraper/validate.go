package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sriram-PR/pair-scraper/pkg/config"
	"github.com/Sriram-PR/pair-scraper/pkg/parse"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
	"github.com/Sriram-PR/pair-scraper/pkg/watch"
)

func newValidateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return doValidate(opts.configFile, cmd.OutOrStdout())
		},
	}
}

// doValidate reports config warnings and fails on the first fatal problem
func doValidate(configPath string, stdout io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	warnings, err := cfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "warning: %s\n", w)
	}
	if err != nil {
		return err
	}

	if _, err := watch.ParseInterval(cfg.Watch.Interval); err != nil {
		return fmt.Errorf("%w: watch.interval: %w", utils.ErrConfigValidation, err)
	}
	for _, seed := range cfg.Watch.Seeds {
		if _, err := parse.ParseSeed(seed, cfg.Search); err != nil {
			return fmt.Errorf("%w: watch seed %q: %w", utils.ErrConfigValidation, seed, err)
		}
	}

	fmt.Fprintf(stdout, "Config %s is valid (store: %s, search engine: %s, %d watch seeds)\n",
		configPath, cfg.Upload.Store, cfg.Search.Engine, len(cfg.Watch.Seeds))
	return nil
}
