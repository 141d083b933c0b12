package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/pair-scraper/pkg/export"
	"github.com/Sriram-PR/pair-scraper/pkg/orchestrate"
	"github.com/Sriram-PR/pair-scraper/pkg/pipeline"
)

const snippetLen = 80

// handleStartScraping validates the directive and starts the run in the background
func (s *Server) handleStartScraping(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	seed := request.GetString("url", "")

	req, err := s.cfg.Runner.PrepareScrape(seed, args["threads"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	job, created := s.jobManager.CreateJob(req.Seed, req.Threads)
	if !created {
		result := map[string]interface{}{
			"status":  "already_running",
			"message": "A scrape is already in progress for this seed",
			"job_id":  job.ID,
			"url":     job.Seed,
		}
		return mcp.NewToolResultText(formatJSON(result)), nil
	}

	go s.runScrapeJob(job.ID, req)

	result := map[string]interface{}{
		"status":  "started",
		"message": "Scrape started successfully",
		"job_id":  job.ID,
		"url":     req.Seed,
		"threads": req.Threads,
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// runScrapeJob runs a scrape job in the background
func (s *Server) runScrapeJob(jobID string, req orchestrate.ScrapeRequest) {
	if !s.jobManager.Start(jobID) {
		return
	}
	jobLog := s.log.WithFields(logrus.Fields{"job_id": jobID, "seed": req.Seed})
	jobLog.Info("Scrape job started")

	progress := pipeline.WithProgress(func(stage pipeline.Stage, done, total int) {
		s.jobManager.UpdateProgress(jobID, string(stage), done, total)
	})
	res := s.cfg.Runner.Scrape(s.jobManager.Context(jobID), req, progress)

	if !res.OK() {
		jobLog.Warnf("Scrape job failed: %s", res.Message)
		s.jobManager.Finish(jobID, JobStatusFailed, "", res.Message)
		return
	}
	jobLog.Info(res.Message)
	s.jobManager.Finish(jobID, JobStatusCompleted, res.Message, "")
}

// handleGetJobStatus handles the get_job_status tool
func (s *Server) handleGetJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	job, ok := s.jobManager.GetJob(jobID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("job '%s' not found", jobID)), nil
	}
	return mcp.NewToolResultText(formatJSON(jobStatus(job))), nil
}

func jobStatus(job Job) map[string]interface{} {
	result := map[string]interface{}{
		"job_id":     job.ID,
		"url":        job.Seed,
		"threads":    job.Threads,
		"status":     job.Status,
		"started_at": job.StartedAt.Format(time.RFC3339),
	}
	if job.Stage != "" {
		result["stage"] = job.Stage
		result["done"] = job.Done
		result["total"] = job.Total
	}
	if !job.CompletedAt.IsZero() {
		result["completed_at"] = job.CompletedAt.Format(time.RFC3339)
		result["duration_seconds"] = job.CompletedAt.Sub(job.StartedAt).Seconds()
	}
	if job.Message != "" {
		result["message"] = job.Message
	}
	if job.ErrorMessage != "" {
		result["error_message"] = job.ErrorMessage
	}
	return result
}

func (s *Server) handleListJobs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobs := s.jobManager.ListJobs()
	statuses := make([]map[string]interface{}, 0, len(jobs))
	for _, j := range jobs {
		statuses = append(statuses, jobStatus(j))
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"jobs": statuses, "total_jobs": len(statuses)})), nil
}

func (s *Server) handleCancelJob(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}
	if !s.jobManager.CancelJob(jobID) {
		return mcp.NewToolResultError(fmt.Sprintf("job '%s' not found or already finished", jobID)), nil
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"job_id": jobID, "status": JobStatusCancelled})), nil
}

// handleStartCleaning runs the cleaner synchronously
func (s *Server) handleStartCleaning(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return runResult(s.cfg.Runner.Clean(ctx))
}

// handleExportData runs the exporter synchronously
func (s *Server) handleExportData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return runResult(s.cfg.Runner.Export(request.GetString("format", export.FormatJSONL)))
}

func runResult(res orchestrate.Result) (*mcp.CallToolResult, error) {
	if !res.OK() {
		return mcp.NewToolResultError(res.Message), nil
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// handleSearchPairs handles the search_pairs tool
func (s *Server) handleSearchPairs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(request.GetString("query", ""))
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	if s.cfg.Pairs == nil {
		return mcp.NewToolResultError("search is not available"), nil
	}

	maxResults := request.GetInt("max_results", 10)
	if maxResults <= 0 {
		maxResults = 10
	}
	if maxResults > 100 {
		maxResults = 100
	}

	pairs, err := s.cfg.Pairs.ReadCleaned()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading cleaned pairs: %v", err)), nil
	}

	lowerQuery := strings.ToLower(query)
	results := make([]map[string]interface{}, 0)
	total := 0
	for _, p := range pairs {
		if !strings.Contains(strings.ToLower(p.Text), lowerQuery) {
			continue
		}
		total++
		if len(results) < maxResults {
			results = append(results, map[string]interface{}{
				"image_url": p.ImageURL,
				"snippet":   extractSnippet(p.Text, query, snippetLen),
			})
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":         query,
		"results":       results,
		"total_matches": total,
	})), nil
}

// extractSnippet returns up to maxLen runes of content around the first match of query
func extractSnippet(content, query string, maxLen int) string {
	runes := []rune(content)
	queryRunes := []rune(strings.ToLower(query))
	lowerRunes := []rune(strings.ToLower(content))

	idx := -1
	for i := 0; i <= len(lowerRunes)-len(queryRunes); i++ {
		if string(lowerRunes[i:i+len(queryRunes)]) == string(queryRunes) {
			idx = i
			break
		}
	}

	if idx == -1 {
		if len(runes) > maxLen {
			return string(runes[:maxLen]) + "..."
		}
		return content
	}

	start := max(idx-maxLen/2, 0)
	end := min(idx+len(queryRunes)+maxLen/2, len(runes))

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet += "..."
	}
	return snippet
}

func formatJSON(data map[string]interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(b)
}
