// Package watch re-runs scrape, clean and export for configured seeds on an interval.
package watch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/pair-scraper/pkg/orchestrate"
	"github.com/Sriram-PR/pair-scraper/pkg/pipeline"
)

// Runner is the set of runs a watch cycle performs
type Runner interface {
	PrepareScrape(seed string, threads any) (orchestrate.ScrapeRequest, error)
	Scrape(ctx context.Context, req orchestrate.ScrapeRequest, opts ...pipeline.RunOption) orchestrate.Result
	Clean(ctx context.Context) orchestrate.Result
	Export(format string) orchestrate.Result
}

// Options configures a Scheduler
type Options struct {
	Seeds        []string
	Threads      int
	Interval     time.Duration
	ExportFormat string // Empty skips the export step
	StateDir     string
}

// Scheduler manages periodic runs of seeds
type Scheduler struct {
	runner       Runner
	opts         Options
	tick         time.Duration
	log          *logrus.Entry
	stateManager *StateManager
	cycleActive  atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a new watch scheduler
func NewScheduler(runner Runner, opts Options, log *logrus.Entry) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		runner:       runner,
		opts:         opts,
		log:          log,
		stateManager: NewStateManager(opts.StateDir),
		ctx:          ctx,
		cancel:       cancel,
	}
	s.tick = s.calculateTickInterval()
	return s
}

// Run starts the watch scheduler and blocks until stopped
func (s *Scheduler) Run() error {
	if err := s.stateManager.Load(); err != nil {
		s.log.Warnf("Failed to load watch state: %v (starting fresh)", err)
	}

	s.log.Infof("Starting watch mode for %d seeds with interval %s", len(s.opts.Seeds), FormatInterval(s.opts.Interval))
	s.logSchedule()

	s.runDueSeeds()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info("Watch scheduler shutting down...")
			s.wg.Wait()
			return nil
		case <-ticker.C:
			s.runDueSeeds()
		}
	}
}

// Stop stops the watch scheduler and cancels an in-flight cycle
func (s *Scheduler) Stop() {
	s.log.Info("Stopping watch scheduler...")
	s.cancel()
}

// runDueSeeds starts a cycle for every due seed unless one is still running
func (s *Scheduler) runDueSeeds() {
	due := s.getDueSeeds()
	if len(due) == 0 {
		s.logNextRun()
		return
	}
	if !s.cycleActive.CompareAndSwap(false, true) {
		s.log.Debug("Previous watch cycle still running, skipping tick")
		return
	}

	s.log.Infof("Running %d due seeds: %v", len(due), due)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.cycleActive.Store(false)
		s.runCycle(due)
		s.logNextRun()
	}()
}

// runCycle processes seeds one after another; each scrape replaces the
// scraped file, so clean and export follow each scrape directly.
func (s *Scheduler) runCycle(seeds []string) {
	for _, seed := range seeds {
		if s.ctx.Err() != nil {
			return
		}
		state := s.runSeed(seed)
		if s.ctx.Err() != nil {
			// Interrupted runs stay due
			return
		}
		s.stateManager.UpdateSeedState(seed, state)
		if err := s.stateManager.Save(); err != nil {
			s.log.Errorf("Failed to save watch state: %v", err)
		}
	}
}

func (s *Scheduler) runSeed(seed string) SeedState {
	seedLog := s.log.WithField("seed", seed)
	state := SeedState{LastRunTime: time.Now()}

	req, err := s.runner.PrepareScrape(seed, s.opts.Threads)
	if err != nil {
		state.ErrorMessage = err.Error()
		seedLog.Errorf("Invalid watch seed: %v", err)
		return state
	}

	res := s.runner.Scrape(s.ctx, req)
	if !res.OK() {
		state.ErrorMessage = "scrape: " + res.Message
		seedLog.Warn(state.ErrorMessage)
		return state
	}
	if res.Scrape != nil {
		state.PairsUploaded = res.Scrape.Uploaded
	}

	res = s.runner.Clean(s.ctx)
	if !res.OK() {
		state.ErrorMessage = "clean: " + res.Message
		seedLog.Warn(state.ErrorMessage)
		return state
	}
	if res.Clean != nil {
		state.PairsCleaned = res.Clean.Valid
	}

	if s.opts.ExportFormat != "" {
		res = s.runner.Export(s.opts.ExportFormat)
		if !res.OK() {
			state.ErrorMessage = "export: " + res.Message
			seedLog.Warn(state.ErrorMessage)
			return state
		}
		if res.Export != nil {
			state.ExportPath = res.Export.Path
		}
	}

	state.LastRunSuccess = true
	seedLog.WithFields(logrus.Fields{"uploaded": state.PairsUploaded, "cleaned": state.PairsCleaned}).Info("Watch run complete")
	return state
}

func (s *Scheduler) getDueSeeds() []string {
	var due []string
	for _, seed := range s.opts.Seeds {
		if s.stateManager.ShouldRun(seed, s.opts.Interval) {
			due = append(due, seed)
		}
	}
	return due
}

// calculateTickInterval returns how often to check for due seeds
func (s *Scheduler) calculateTickInterval() time.Duration {
	// Check at least every minute, or every 1/10th of the interval
	return min(max(s.opts.Interval/10, time.Minute), 10*time.Minute)
}

func (s *Scheduler) logSchedule() {
	s.log.Info("Watch schedule:")
	for _, seed := range s.opts.Seeds {
		state, exists := s.stateManager.GetSeedState(seed)
		if !exists {
			s.log.Infof("  %s: never run, will run immediately", seed)
			continue
		}
		status := "success"
		if !state.LastRunSuccess {
			status = "failed"
		}
		s.log.Infof("  %s: last run %s (%s, %d pairs), next run %s",
			seed,
			state.LastRunTime.Format(time.RFC3339),
			status,
			state.PairsUploaded,
			s.stateManager.GetNextRunTime(seed, s.opts.Interval).Format(time.RFC3339))
	}
}

func (s *Scheduler) logNextRun() {
	type nextRun struct {
		seed string
		at   time.Time
	}
	runs := make([]nextRun, 0, len(s.opts.Seeds))
	for _, seed := range s.opts.Seeds {
		runs = append(runs, nextRun{seed, s.stateManager.GetNextRunTime(seed, s.opts.Interval)})
	}
	if len(runs) == 0 {
		return
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].at.Before(runs[j].at) })

	next := runs[0]
	until := max(time.Until(next.at), 0)
	s.log.Infof("Next run: %s in %v (at %s)", next.seed, until.Round(time.Second), next.at.Format("15:04:05"))
}

// GetStatus returns the current status of all watched seeds
func (s *Scheduler) GetStatus() map[string]SeedStatus {
	status := make(map[string]SeedStatus, len(s.opts.Seeds))
	for _, seed := range s.opts.Seeds {
		state, exists := s.stateManager.GetSeedState(seed)
		status[seed] = SeedStatus{
			Seed:        seed,
			SeedState:   state,
			NextRunTime: s.stateManager.GetNextRunTime(seed, s.opts.Interval),
			NeverRun:    !exists,
		}
	}
	return status
}

// SeedStatus contains the status of a watched seed
type SeedStatus struct {
	SeedState
	Seed        string
	NextRunTime time.Time
	NeverRun    bool
}

// FormatInterval formats a duration for display
func FormatInterval(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		if mins > 0 {
			return fmt.Sprintf("%dh%dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd%dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}

// ParseInterval parses a positive duration, accepting a leading day count such as "7d" or "1d12h"
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	d, err := time.ParseDuration(s)
	if err != nil {
		d, err = parseDays(s)
		if err != nil {
			return 0, fmt.Errorf("invalid interval format: %q (examples: 30m, 1h, 24h, 7d)", s)
		}
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %q", s)
	}
	return d, nil
}

func parseDays(s string) (time.Duration, error) {
	daysPart, rest, ok := strings.Cut(s, "d")
	if !ok || daysPart == "" {
		return 0, fmt.Errorf("no day count")
	}
	var days int
	if _, err := fmt.Sscanf(daysPart, "%d", &days); err != nil || fmt.Sprint(days) != daysPart {
		return 0, fmt.Errorf("bad day count %q", daysPart)
	}
	d := time.Duration(days) * 24 * time.Hour
	if rest != "" {
		extra, err := time.ParseDuration(rest)
		if err != nil {
			return 0, err
		}
		d += extra
	}
	return d, nil
}
