package main

import (
	"github.com/spf13/cobra"

	"github.com/Sriram-PR/pair-scraper/pkg/export"
	"github.com/Sriram-PR/pair-scraper/pkg/orchestrate"
)

func newScrapeCmd(opts *globalOptions) *cobra.Command {
	var threads int
	cmd := &cobra.Command{
		Use:   "scrape <url | search:keywords>",
		Short: "Scrape pairs from a seed and store them as the scraped-pairs file",
		Example: `  pair-scraper scrape https://zh.wikipedia.org/wiki/猫
  pair-scraper scrape "search:cat dog" --threads 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			_, o, _, err := setup(ctx, opts, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer o.Close()

			var threadArg any
			if cmd.Flags().Changed("threads") {
				threadArg = threads
			}
			req, err := o.PrepareScrape(args[0], threadArg)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), o.Scrape(ctx, req))
		},
	}
	cmd.Flags().IntVarP(&threads, "threads", "t", 0, "Workers per phase, 1-5 (default from config)")
	return cmd
}

func newCleanCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Rebuild the cleaned-pairs file from the scraped pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			_, o, _, err := setup(ctx, opts, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer o.Close()
			return printResult(cmd.OutOrStdout(), o.Clean(ctx))
		},
	}
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the cleaned pairs as jsonl, csv or parquet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Refuse unsupported formats before anything touches the filesystem
			if _, err := export.ParseFormat(format); err != nil {
				return printResult(cmd.OutOrStdout(), orchestrate.Result{
					Status:  orchestrate.StatusError,
					Message: err.Error(),
					Err:     err,
				})
			}

			ctx, stop := signalContext()
			defer stop()

			_, o, _, err := setup(ctx, opts, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer o.Close()
			return printResult(cmd.OutOrStdout(), o.Export(format))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, csv, parquet)")
	return cmd
}
