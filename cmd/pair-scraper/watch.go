package main

import (
	"fmt"

	"github.com/spf13/cobra"

	applog "github.com/Sriram-PR/pair-scraper/pkg/log"
	"github.com/Sriram-PR/pair-scraper/pkg/watch"
)

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var (
		seeds        []string
		interval     string
		exportFormat string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run scrape, clean and export for seeds on a schedule",
		Example: `  pair-scraper watch --seed "search:cat" --seed https://zh.wikipedia.org/wiki/狗 --interval 12h
  pair-scraper watch --interval 7d --export-format parquet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			cfg, o, log, err := setup(ctx, opts, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer o.Close()

			if len(seeds) == 0 {
				seeds = cfg.Watch.Seeds
			}
			if len(seeds) == 0 {
				return fmt.Errorf("no seeds to watch: pass --seed or set watch.seeds in %s", opts.configFile)
			}
			if interval == "" {
				interval = cfg.Watch.Interval
			}
			every, err := watch.ParseInterval(interval)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("export-format") {
				exportFormat = cfg.Watch.ExportFormat
			}

			scheduler := watch.NewScheduler(o, watch.Options{
				Seeds:        seeds,
				Threads:      cfg.Watch.Threads,
				Interval:     every,
				ExportFormat: exportFormat,
				StateDir:     cfg.Paths.StateDir,
			}, applog.Component(log, "watch"))

			go func() {
				<-ctx.Done()
				log.Warn("Received signal, stopping watch...")
				scheduler.Stop()
			}()
			return scheduler.Run()
		},
	}
	cmd.Flags().StringArrayVar(&seeds, "seed", nil, "Seed to watch (repeatable; default from config)")
	cmd.Flags().StringVar(&interval, "interval", "", "Run interval such as 30m, 24h or 7d (default from config)")
	cmd.Flags().StringVar(&exportFormat, "export-format", "", "Export format after each clean (empty to skip)")
	return cmd
}
