// Package orchestrate exposes the scrape, clean and export runs to the HTTP, MCP, CLI and
// watch front-ends. Runs are validated before any I/O and never overlap.
package orchestrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/pair-scraper/pkg/clean"
	"github.com/Sriram-PR/pair-scraper/pkg/export"
	"github.com/Sriram-PR/pair-scraper/pkg/pipeline"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

// Result statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Scraper interface {
	Run(ctx context.Context, seed string, concurrency int, opts ...pipeline.RunOption) (pipeline.Summary, error)
}

type PairCleaner interface {
	Clean(ctx context.Context) (clean.Result, error)
}

type PairExporter interface {
	Export(format string) (export.Result, error)
}

// Result is the envelope returned by every run. At most one of the
// operation fields is set; its JSON fields are merged into the envelope.
type Result struct {
	Status  string
	Message string
	Scrape  *pipeline.Summary
	Clean   *clean.Result
	Export  *export.Result
	Err     error
}

// OK reports whether the run succeeded
func (r Result) OK() bool { return r.Status == StatusSuccess }

// InvalidInput reports whether the run was refused because of caller input
func (r Result) InvalidInput() bool { return IsInvalidInput(r.Err) }

// MarshalJSON flattens the operation fields next to status and message
func (r Result) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	var op any
	switch {
	case r.Scrape != nil:
		op = r.Scrape
	case r.Clean != nil:
		op = r.Clean
	case r.Export != nil:
		op = r.Export
	}
	if op != nil {
		raw, err := json.Marshal(op)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
	}
	out["status"] = r.Status
	out["message"] = r.Message
	return json.Marshal(out)
}

// IsInvalidInput reports whether err was caused by caller input rather than an internal failure
func IsInvalidInput(err error) bool {
	return errors.Is(err, utils.ErrInvalidThreads) ||
		errors.Is(err, utils.ErrInvalidConcurrency) ||
		errors.Is(err, utils.ErrEmptySeed) ||
		errors.Is(err, utils.ErrUnsupportedFormat) ||
		errors.Is(err, utils.ErrNoInput)
}

func failure(err error) Result {
	return Result{Status: StatusError, Message: err.Error(), Err: err}
}

// ScrapeRequest is a validated scrape directive
type ScrapeRequest struct {
	Seed    string
	Threads int
}

// Orchestrator serializes runs over the shared pair files
type Orchestrator struct {
	scraper        Scraper
	cleaner        PairCleaner
	exporter       PairExporter
	defaultThreads int
	closers        []func() error
	mu             sync.Mutex
	log            *logrus.Entry
}

// NewOrchestrator creates an Orchestrator. defaultThreads applies when a request omits threads.
func NewOrchestrator(scraper Scraper, cleaner PairCleaner, exporter PairExporter, defaultThreads int, log *logrus.Entry) *Orchestrator {
	return &Orchestrator{
		scraper:        scraper,
		cleaner:        cleaner,
		exporter:       exporter,
		defaultThreads: defaultThreads,
		log:            log,
	}
}

// PrepareScrape validates a raw scrape directive without touching the network
func (o *Orchestrator) PrepareScrape(seed string, threads any) (ScrapeRequest, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return ScrapeRequest{}, utils.ErrEmptySeed
	}
	n, err := ValidateThreads(threads, o.defaultThreads)
	if err != nil {
		return ScrapeRequest{}, err
	}
	return ScrapeRequest{Seed: seed, Threads: n}, nil
}

// Scrape runs the fetch and upload phases for req
func (o *Orchestrator) Scrape(ctx context.Context, req ScrapeRequest, opts ...pipeline.RunOption) Result {
	if _, err := ValidateThreads(req.Threads, o.defaultThreads); err != nil {
		return failure(err)
	}
	unlock, err := o.acquire()
	if err != nil {
		return failure(err)
	}
	defer unlock()

	summary, err := o.scraper.Run(ctx, req.Seed, req.Threads, opts...)
	if err != nil {
		o.log.WithFields(logrus.Fields{"seed": req.Seed, "error_type": utils.CategorizeError(err)}).Errorf("Scrape failed: %v", err)
		return failure(err)
	}
	return Result{Status: StatusSuccess, Message: summary.Message(), Scrape: &summary}
}

// Clean rebuilds the cleaned-pairs file from the scraped pairs
func (o *Orchestrator) Clean(ctx context.Context) Result {
	unlock, err := o.acquire()
	if err != nil {
		return failure(err)
	}
	defer unlock()

	res, err := o.cleaner.Clean(ctx)
	if err != nil {
		o.log.WithField("error_type", utils.CategorizeError(err)).Errorf("Clean failed: %v", err)
		return failure(err)
	}
	msg := fmt.Sprintf("cleaned pairs: %d valid, %d skipped", res.Valid, res.Skipped)
	if res.Malformed > 0 {
		msg += fmt.Sprintf(", %d malformed lines ignored", res.Malformed)
	}
	return Result{Status: StatusSuccess, Message: msg, Clean: &res}
}

// Export writes the cleaned pairs in format. Unsupported formats are refused before any file I/O.
func (o *Orchestrator) Export(format string) Result {
	if _, err := export.ParseFormat(format); err != nil {
		return failure(err)
	}
	unlock, err := o.acquire()
	if err != nil {
		return failure(err)
	}
	defer unlock()

	res, err := o.exporter.Export(format)
	if err != nil {
		o.log.WithFields(logrus.Fields{"format": format, "error_type": utils.CategorizeError(err)}).Errorf("Export failed: %v", err)
		return failure(err)
	}
	return Result{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("exported %d pairs as %s to %s", res.Count, res.Format, res.Path),
		Export:  &res,
	}
}

// acquire claims the run slot without waiting
func (o *Orchestrator) acquire() (func(), error) {
	if !o.mu.TryLock() {
		return nil, utils.ErrRunInProgress
	}
	return o.mu.Unlock, nil
}

// Close releases resources registered by Build
func (o *Orchestrator) Close() error {
	var errs []error
	for i := len(o.closers) - 1; i >= 0; i-- {
		if err := o.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	o.closers = nil
	return errors.Join(errs...)
}
