package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"

	"github.com/Sriram-PR/pair-scraper/pkg/config"
	"github.com/Sriram-PR/pair-scraper/pkg/fetch"
	"github.com/Sriram-PR/pair-scraper/pkg/models"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

// FetchResult is the outcome of fetching one seed target.
// Pairs is empty whenever Err is set.
type FetchResult struct {
	Target models.SeedTarget
	Pairs  []models.RawPair
	Err    error
}

// PageFetcher retrieves pages and extracts image/caption pairs from them
type PageFetcher struct {
	fetcher  *fetch.Fetcher
	timeout  time.Duration
	maxBytes int64
	selector string
	log      *logrus.Entry
}

// NewPageFetcher creates a PageFetcher using the page settings of cfg
func NewPageFetcher(fetcher *fetch.Fetcher, cfg *config.AppConfig, log *logrus.Entry) *PageFetcher {
	return &PageFetcher{
		fetcher:  fetcher,
		timeout:  cfg.PageTimeout,
		maxBytes: cfg.MaxPageBytes,
		selector: cfg.ContentSelector,
		log:      log,
	}
}

// Fetch downloads target.URL and extracts its pairs.
// Failures never propagate: they are logged and reported in FetchResult.Err with no pairs.
func (pf *PageFetcher) Fetch(ctx context.Context, target models.SeedTarget) FetchResult {
	result := FetchResult{Target: target}
	taskLog := pf.log.WithFields(logrus.Fields{"url": target.URL, "target": target.Label})

	resp, err := pf.fetcher.Get(ctx, target.URL, pf.timeout, pf.maxBytes)
	if err != nil {
		result.Err = err
		taskLog.WithField("error_type", utils.CategorizeError(err)).Warnf("Page fetch failed: %v", err)
		return result
	}
	if resp.Truncated {
		taskLog.Warnf("Page body exceeds %d bytes, extracting from the prefix only", pf.maxBytes)
	}

	doc, err := goquery.NewDocumentFromReader(decodeBody(resp.Body, resp.ContentType))
	if err != nil {
		result.Err = fmt.Errorf("%w: parsing HTML of '%s': %w", utils.ErrParsing, target.URL, err)
		taskLog.Warn(result.Err)
		return result
	}

	result.Pairs = ExtractPairs(doc, resp.URL, target.URL, pf.selector, taskLog)
	taskLog.WithField("pairs", len(result.Pairs)).Info("Extracted pairs")
	return result
}

// decodeBody converts body to UTF-8 using the declared or sniffed charset
func decodeBody(body []byte, contentType string) io.Reader {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return bytes.NewReader(body)
	}
	return r
}
