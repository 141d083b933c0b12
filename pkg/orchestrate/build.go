package orchestrate

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/pair-scraper/pkg/blobstore"
	"github.com/Sriram-PR/pair-scraper/pkg/clean"
	"github.com/Sriram-PR/pair-scraper/pkg/config"
	"github.com/Sriram-PR/pair-scraper/pkg/export"
	"github.com/Sriram-PR/pair-scraper/pkg/extract"
	"github.com/Sriram-PR/pair-scraper/pkg/fetch"
	"github.com/Sriram-PR/pair-scraper/pkg/pipeline"
	"github.com/Sriram-PR/pair-scraper/pkg/storage"
	"github.com/Sriram-PR/pair-scraper/pkg/upload"
)

const ledgerGCInterval = 10 * time.Minute

// Build wires the full stack from a validated config. The returned
// Orchestrator owns the upload ledger; call Close when done.
func Build(ctx context.Context, cfg *config.AppConfig, creds config.Credentials, log *logrus.Logger) (*Orchestrator, error) {
	component := func(name string) *logrus.Entry { return log.WithField("component", name) }

	client := fetch.NewClient(cfg.HTTPClientSettings, component("http"))
	fetcher := fetch.NewFetcher(client, cfg, component("fetch"))
	pairs := storage.NewPairStore(cfg.Paths.ScrapedFile, cfg.Paths.CleanedFile, component("storage"))

	store, err := blobstore.New(ctx, cfg.Upload, creds, component("blobstore"))
	if err != nil {
		return nil, fmt.Errorf("creating content store: %w", err)
	}

	var closers []func() error
	var ledger storage.UploadLedger
	if cfg.Upload.LedgerEnabled() {
		badgerStore, err := storage.NewBadgerStore(cfg.Paths.StateDir, component("ledger"))
		if err != nil {
			return nil, fmt.Errorf("opening upload ledger: %w", err)
		}
		gcCtx, stopGC := context.WithCancel(context.Background())
		go badgerStore.RunGC(gcCtx, ledgerGCInterval)
		ledger = badgerStore
		closers = append(closers, func() error {
			stopGC()
			return badgerStore.Close()
		})
	}

	uploader := upload.NewUploader(fetcher, store, ledger, cfg, component("upload"))
	coordinator := pipeline.NewCoordinator(extract.NewPageFetcher(fetcher, cfg, component("extract")), uploader, pairs, cfg, component("pipeline"))
	cleaner := clean.NewCleaner(pairs, clean.NewPerceptualHasher(fetcher, cfg), cfg, component("clean"))
	exporter := export.NewExporter(pairs, cfg.Paths.ExportDir, component("export"))

	o := NewOrchestrator(coordinator, cleaner, exporter, cfg.DefaultThreads, component("orchestrate"))
	o.closers = closers
	return o, nil
}
