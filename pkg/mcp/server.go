package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/pair-scraper/pkg/models"
	"github.com/Sriram-PR/pair-scraper/pkg/orchestrate"
	"github.com/Sriram-PR/pair-scraper/pkg/pipeline"
)

const (
	serverName    = "pair-scraper"
	serverVersion = "1.0.0"
)

// Runner is the set of runs exposed as tools
type Runner interface {
	PrepareScrape(seed string, threads any) (orchestrate.ScrapeRequest, error)
	Scrape(ctx context.Context, req orchestrate.ScrapeRequest, opts ...pipeline.RunOption) orchestrate.Result
	Clean(ctx context.Context) orchestrate.Result
	Export(format string) orchestrate.Result
}

// PairReader gives search access to the cleaned pairs
type PairReader interface {
	ReadCleaned() ([]models.CleanedPair, error)
}

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	Runner    Runner
	Pairs     PairReader
	Transport string // "stdio" or "sse"
	Port      int
	Logger    *logrus.Logger
}

// Server wraps the MCP server with the pair-scraper tools
type Server struct {
	mcpServer  *server.MCPServer
	cfg        *ServerConfig
	log        *logrus.Entry
	jobManager *JobManager
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New("runner is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	s := &Server{
		mcpServer:  server.NewMCPServer(serverName, serverVersion, server.WithLogging()),
		cfg:        cfg,
		log:        cfg.Logger.WithField("component", "mcp"),
		jobManager: NewJobManager(),
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_scraping",
		mcp.WithDescription("Start a background scrape of image/caption pairs. Returns immediately with a job ID."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("A page URL, or 'search:' followed by space-separated keywords"),
		),
		mcp.WithNumber("threads",
			mcp.Description("Workers per phase, 1-5 (default 3)"),
		),
	), s.handleStartScraping)

	s.mcpServer.AddTool(mcp.NewTool("get_job_status",
		mcp.WithDescription("Get the status and progress of a scrape job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by start_scraping"),
		),
	), s.handleGetJobStatus)

	s.mcpServer.AddTool(mcp.NewTool("list_jobs",
		mcp.WithDescription("List scrape jobs started by this server, newest first"),
	), s.handleListJobs)

	s.mcpServer.AddTool(mcp.NewTool("cancel_job",
		mcp.WithDescription("Cancel a pending or running scrape job; previous output is kept"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by start_scraping"),
		),
	), s.handleCancelJob)

	s.mcpServer.AddTool(mcp.NewTool("start_cleaning",
		mcp.WithDescription("Normalize and deduplicate the scraped pairs into the cleaned set"),
	), s.handleStartCleaning)

	s.mcpServer.AddTool(mcp.NewTool("export_data",
		mcp.WithDescription("Export the cleaned pairs"),
		mcp.WithString("format",
			mcp.Description("jsonl (default), csv or parquet"),
		),
	), s.handleExportData)

	s.mcpServer.AddTool(mcp.NewTool("search_pairs",
		mcp.WithDescription("Search cleaned pairs by caption text"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Case-insensitive substring to look for in captions"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results to return (default: 10, max: 100)"),
		),
	), s.handleSearchPairs)

	s.log.Infof("Registered %d MCP tools", 7)
}

// Run starts the MCP server with the configured transport
func (s *Server) Run() error {
	switch s.cfg.Transport {
	case "stdio":
		s.log.Info("Starting MCP server with stdio transport")
		return server.ServeStdio(s.mcpServer)
	case "sse":
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.log.Infof("Starting MCP server with SSE transport on %s", addr)
		return server.NewSSEServer(s.mcpServer).Start(addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}

// Shutdown cancels running jobs
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down MCP server...")
	s.jobManager.CancelAll()
	return nil
}
