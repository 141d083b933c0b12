package main

import (
	"context"

	"github.com/spf13/cobra"

	applog "github.com/Sriram-PR/pair-scraper/pkg/log"
	"github.com/Sriram-PR/pair-scraper/pkg/mcp"
	"github.com/Sriram-PR/pair-scraper/pkg/server"
	"github.com/Sriram-PR/pair-scraper/pkg/storage"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scrape, clean and export endpoints over HTTP",
		Long: `Starts the HTTP front-end:

  POST /startScraping  {"url": "...", "threads": 3}
  POST /startCleaning
  POST /exportData     {"format": "jsonl"}
  GET  /healthz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			cfg, o, log, err := setup(ctx, opts, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer o.Close()

			if addr == "" {
				addr = cfg.Server.Addr
			}
			return server.New(o, applog.Component(log, "server")).Run(ctx, addr, cfg.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, \":5000\")")
	return cmd
}

func newMcpServerCmd(opts *globalOptions) *cobra.Command {
	var (
		transport string
		port      int
	)
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Start an MCP (Model Context Protocol) server for AI tool integration",
		Long: `Start an MCP server exposing the pair-scraper runs as tools.

Available MCP Tools:
  start_scraping   Start a background scrape for a seed
  get_job_status   Get the status of a scrape job
  list_jobs        List scrape jobs
  cancel_job       Cancel a running scrape job
  start_cleaning   Rebuild the cleaned pairs
  export_data      Export the cleaned pairs
  search_pairs     Search cleaned captions`,
		Example: `  # stdio transport (for desktop MCP clients)
  pair-scraper mcp-server -c config.yaml

  # SSE transport on port 8080
  pair-scraper mcp-server -c config.yaml --transport sse --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, o, log, err := setup(context.Background(), opts, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer o.Close()

			srv, err := mcp.NewServer(&mcp.ServerConfig{
				Runner:    o,
				Pairs:     storage.NewPairStore(cfg.Paths.ScrapedFile, cfg.Paths.CleanedFile, applog.Component(log, "storage")),
				Transport: transport,
				Port:      port,
				Logger:    log,
			})
			if err != nil {
				return err
			}
			defer srv.Shutdown(context.Background())

			log.Infof("Starting MCP server (transport: %s)", transport)
			return srv.Run()
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type (stdio, sse)")
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP port (for sse transport)")
	return cmd
}
