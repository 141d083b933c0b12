// Package pipeline runs one scrape: seed expansion, page fetching, selection and upload.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Sriram-PR/pair-scraper/pkg/config"
	"github.com/Sriram-PR/pair-scraper/pkg/extract"
	"github.com/Sriram-PR/pair-scraper/pkg/models"
	"github.com/Sriram-PR/pair-scraper/pkg/parse"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

// PageFetcher extracts raw pairs from one target. It reports failures in the result.
type PageFetcher interface {
	Fetch(ctx context.Context, target models.SeedTarget) extract.FetchResult
}

// PairUploader re-hosts the image of one pair
type PairUploader interface {
	Upload(ctx context.Context, pair models.RawPair) (models.UploadedPair, error)
}

// ScrapedWriter persists the uploaded pairs of a run, replacing earlier output
type ScrapedWriter interface {
	WriteScraped(pairs []models.UploadedPair) error
}

// Stage identifies a fan-out phase for progress reporting
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageUpload Stage = "upload"
)

// ProgressFunc receives completed/total task counts. Calls for one stage are serialized.
type ProgressFunc func(stage Stage, done, total int)

// RunOption customizes a single Run
type RunOption func(*runOptions)

type runOptions struct {
	progress ProgressFunc
}

// WithProgress reports task completion during Run
func WithProgress(fn ProgressFunc) RunOption {
	return func(o *runOptions) { o.progress = fn }
}

// Summary describes a finished run
type Summary struct {
	Targets       int           `json:"targets"`        // Seed targets fetched
	FailedTargets int           `json:"failed_targets"` // Targets whose fetch reported an error
	Found         int           `json:"found"`          // Raw pairs extracted across all targets
	Retained      int           `json:"retained"`       // Pairs left after URL dedup and truncation
	Uploaded      int           `json:"uploaded"`       // Pairs uploaded and persisted
	Duration      time.Duration `json:"-"`
}

// Message is the human-readable result returned to callers
func (s Summary) Message() string {
	return fmt.Sprintf("processed %d targets, uploaded %d pairs", s.Targets, s.Uploaded)
}

// Coordinator fans seed targets out to the fetcher and retained pairs out to the uploader
type Coordinator struct {
	fetcher    PageFetcher
	uploader   PairUploader
	store      ScrapedWriter
	search     config.SearchConfig
	maxItems   int
	dedupByURL bool
	log        *logrus.Entry
}

// NewCoordinator creates a Coordinator from the application config
func NewCoordinator(fetcher PageFetcher, uploader PairUploader, store ScrapedWriter, cfg *config.AppConfig, log *logrus.Entry) *Coordinator {
	return &Coordinator{
		fetcher:    fetcher,
		uploader:   uploader,
		store:      store,
		search:     cfg.Search,
		maxItems:   cfg.MaxItems,
		dedupByURL: cfg.DedupByURL,
		log:        log,
	}
}

// Run executes both phases for seed with at most concurrency workers per phase.
// The upload phase starts only after every fetch has finished. Failed fetches and
// uploads are dropped. The scraped-pairs file is rewritten only when the run completes.
func (c *Coordinator) Run(ctx context.Context, seed string, concurrency int, opts ...RunOption) (Summary, error) {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}
	start := time.Now()
	var summary Summary

	if concurrency < 1 {
		return summary, fmt.Errorf("%w: got %d", utils.ErrInvalidConcurrency, concurrency)
	}

	targets, err := parse.ParseSeed(seed, c.search)
	if err != nil {
		return summary, err
	}
	summary.Targets = len(targets)
	runLog := c.log.WithFields(logrus.Fields{"seed": seed, "targets": len(targets), "concurrency": concurrency})
	runLog.Info("Starting scrape run")

	raw, failed := c.fetchAll(ctx, targets, concurrency, ro.progress)
	summary.FailedTargets = failed
	summary.Found = len(raw)

	retained := SelectPairs(raw, c.dedupByURL, c.maxItems)
	summary.Retained = len(retained)
	runLog.WithFields(logrus.Fields{"found": summary.Found, "retained": summary.Retained, "failed_targets": failed}).Info("Fetch phase complete")

	uploaded := c.uploadAll(ctx, retained, concurrency, ro.progress)
	summary.Uploaded = len(uploaded)

	if err := ctx.Err(); err != nil {
		runLog.Warnf("Run interrupted, keeping previous output: %v", err)
		return summary, err
	}

	if err := c.store.WriteScraped(uploaded); err != nil {
		return summary, err
	}

	summary.Duration = time.Since(start)
	runLog.WithFields(logrus.Fields{"uploaded": summary.Uploaded, "duration": summary.Duration}).Info(summary.Message())
	return summary, nil
}

// fetchAll runs the fetch phase and concatenates pairs in completion order.
// Pairs of one target keep their document order.
func (c *Coordinator) fetchAll(ctx context.Context, targets []models.SeedTarget, concurrency int, progress ProgressFunc) ([]models.RawPair, int) {
	results := make(chan extract.FetchResult, len(targets))

	go func() {
		var g errgroup.Group
		g.SetLimit(concurrency)
		for _, target := range targets {
			g.Go(func() error {
				results <- c.fetcher.Fetch(ctx, target)
				return nil
			})
		}
		g.Wait()
		close(results)
	}()

	var pairs []models.RawPair
	failed, done := 0, 0
	for res := range results {
		done++
		if res.Err != nil {
			failed++
		} else {
			c.log.WithFields(logrus.Fields{"target": res.Target.Label, "url": res.Target.URL, "pairs": len(res.Pairs)}).Debug("Target fetched")
			pairs = append(pairs, res.Pairs...)
		}
		if progress != nil {
			progress(StageFetch, done, len(targets))
		}
	}
	return pairs, failed
}

// uploadAll runs the upload phase; each worker owns one slot so order follows pairs
func (c *Coordinator) uploadAll(ctx context.Context, pairs []models.RawPair, concurrency int, progress ProgressFunc) []models.UploadedPair {
	slots := make([]*models.UploadedPair, len(pairs))
	finished := make(chan struct{}, len(pairs))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, pair := range pairs {
		g.Go(func() error {
			defer func() { finished <- struct{}{} }()
			up, err := c.uploader.Upload(ctx, pair)
			if err != nil {
				c.log.WithFields(logrus.Fields{"img_url": pair.ImageURL, "error_type": utils.CategorizeError(err)}).Debug("Dropping pair")
				return nil
			}
			if up.ImageURL == "" || up.Text == "" {
				return nil
			}
			slots[i] = &up
			return nil
		})
	}

	reported := make(chan struct{})
	go func() {
		defer close(reported)
		done := 0
		for range finished {
			done++
			if progress != nil {
				progress(StageUpload, done, len(pairs))
			}
		}
	}()

	g.Wait()
	close(finished)
	<-reported

	uploaded := make([]models.UploadedPair, 0, len(pairs))
	for _, s := range slots {
		if s != nil {
			uploaded = append(uploaded, *s)
		}
	}
	return uploaded
}

// SelectPairs optionally keeps the first pair per image URL, then truncates to maxItems.
// A maxItems of zero or less keeps everything.
func SelectPairs(pairs []models.RawPair, dedupByURL bool, maxItems int) []models.RawPair {
	selected := pairs
	if dedupByURL {
		seen := make(map[string]struct{}, len(pairs))
		selected = make([]models.RawPair, 0, len(pairs))
		for _, p := range pairs {
			if _, dup := seen[p.ImageURL]; dup {
				continue
			}
			seen[p.ImageURL] = struct{}{}
			selected = append(selected, p)
		}
	}
	if maxItems > 0 && len(selected) > maxItems {
		selected = selected[:maxItems]
	}
	return selected
}
