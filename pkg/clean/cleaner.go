// Package clean normalizes scraped captions and drops low quality or duplicate pairs.
package clean

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/pair-scraper/pkg/config"
	"github.com/Sriram-PR/pair-scraper/pkg/models"
	"github.com/Sriram-PR/pair-scraper/pkg/storage"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

// PairSource is the part of storage.PairStore used by the Cleaner
type PairSource interface {
	ScanScraped(onRecord func(models.UploadedPair) error, onMalformed storage.MalformedFunc) error
	WriteCleaned(pairs []models.CleanedPair) error
}

// Result summarizes one Clean pass
type Result struct {
	Valid     int `json:"valid_count"`
	Skipped   int `json:"skipped_count"`
	Malformed int `json:"malformed_count"`
}

// Cleaner turns the scraped-pairs file into the cleaned-pairs file
type Cleaner struct {
	store  PairSource
	hasher ImageHasher
	filter *TextFilter
	log    *logrus.Entry
}

// NewCleaner creates a Cleaner using the thresholds in cfg.Clean
func NewCleaner(store PairSource, hasher ImageHasher, cfg *config.AppConfig, log *logrus.Entry) *Cleaner {
	return &Cleaner{
		store:  store,
		hasher: hasher,
		filter: NewTextFilter(cfg.Clean.MinTextLength, cfg.Clean.BadKeywords),
		log:    log,
	}
}

// Clean reads every scraped pair, keeps the first occurrence of each normalized
// caption and each image hash, and rewrites the cleaned file once the pass completes.
// Returns utils.ErrNoInput without writing when there is no scraped file.
func (c *Cleaner) Clean(ctx context.Context) (Result, error) {
	var (
		res        Result
		cleaned    = []models.CleanedPair{}
		seenTexts  = make(map[string]struct{})
		seenHashes = make(map[string]struct{})
	)

	onMalformed := func(lineNo int, err error) {
		res.Malformed++
		c.log.WithFields(logrus.Fields{"line": lineNo, "error": err}).Warn("Skipping malformed scraped record")
	}

	onRecord := func(p models.UploadedPair) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		pairLog := c.log.WithField("img_url", p.ImageURL)

		if strings.TrimSpace(p.Text) == "" || strings.TrimSpace(p.ImageURL) == "" {
			res.Skipped++
			pairLog.Debug("Skipped: missing field")
			return nil
		}

		text := NormalizeText(p.Text)
		if reason, rejected := c.filter.Reject(text); rejected {
			res.Skipped++
			pairLog.WithField("reason", reason).Debug("Skipped: invalid text")
			return nil
		}
		if _, dup := seenTexts[text]; dup {
			res.Skipped++
			pairLog.Debug("Skipped: duplicate text")
			return nil
		}

		hash, err := c.hasher.Hash(ctx, p.ImageURL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			res.Skipped++
			pairLog.WithFields(logrus.Fields{"error": err, "error_type": utils.CategorizeError(err)}).Debug("Skipped: image hash failed")
			return nil
		}
		if _, dup := seenHashes[hash]; dup {
			res.Skipped++
			pairLog.WithField("hash", hash).Debug("Skipped: duplicate image")
			return nil
		}

		seenTexts[text] = struct{}{}
		seenHashes[hash] = struct{}{}
		cleaned = append(cleaned, models.CleanedPair{Text: text, ImageURL: p.ImageURL})
		res.Valid++
		return nil
	}

	if err := c.store.ScanScraped(onRecord, onMalformed); err != nil {
		return res, err
	}

	if err := c.store.WriteCleaned(cleaned); err != nil {
		return res, err
	}

	c.log.WithFields(logrus.Fields{
		"valid":     res.Valid,
		"skipped":   res.Skipped,
		"malformed": res.Malformed,
	}).Info("Cleaning complete")
	return res, nil
}
