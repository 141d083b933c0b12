package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	configFile string
	envFile    string
	logLevel   string
}

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "pair-scraper",
		Short: "Scrape, clean and export image/caption pairs",
		Long: `pair-scraper collects image/caption pairs from a page URL or a keyword search,
re-hosts the images in a content store, removes duplicate and low-quality
pairs and exports the result as JSONL, CSV or Parquet.

Seeds are either a page URL or "search:" followed by space-separated keywords.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "config.yaml", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Optional dotenv file with content store credentials")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "loglevel", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newScrapeCmd(opts))
	cmd.AddCommand(newCleanCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMcpServerCmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
