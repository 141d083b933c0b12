// Package upload downloads candidate images, validates them and re-hosts them on a content store.
package upload

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/pair-scraper/pkg/blobstore"
	"github.com/Sriram-PR/pair-scraper/pkg/config"
	"github.com/Sriram-PR/pair-scraper/pkg/fetch"
	"github.com/Sriram-PR/pair-scraper/pkg/models"
	"github.com/Sriram-PR/pair-scraper/pkg/parse"
	"github.com/Sriram-PR/pair-scraper/pkg/storage"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

// errNoPublicURL marks a store that accepted the bytes but returned no URL; retrying does not help
var errNoPublicURL = errors.New("content store returned no URL")

// Uploader re-hosts images and pairs them with their trimmed caption
type Uploader struct {
	fetcher *fetch.Fetcher
	store   blobstore.ContentStore
	ledger  storage.UploadLedger // nil disables reuse across runs
	storeID string
	cfg     config.UploadConfig
	timeout time.Duration
	newID   func() string
	log     *logrus.Entry
}

// NewUploader creates an Uploader. ledger may be nil.
func NewUploader(fetcher *fetch.Fetcher, store blobstore.ContentStore, ledger storage.UploadLedger, cfg *config.AppConfig, log *logrus.Entry) *Uploader {
	return &Uploader{
		fetcher: fetcher,
		store:   store,
		ledger:  ledger,
		storeID: cfg.Upload.StoreIdentity(),
		cfg:     cfg.Upload,
		timeout: cfg.ImageTimeout,
		newID:   uuid.NewString,
		log:     log,
	}
}

// Upload downloads pair.ImageURL, validates it and stores it under a fresh id.
// Rejections (bad status, not an image, too small, too large) fail at once;
// other failures are retried up to the configured attempts with a fixed delay.
func (u *Uploader) Upload(ctx context.Context, pair models.RawPair) (models.UploadedPair, error) {
	imgLog := u.log.WithField("img_url", pair.ImageURL)

	text := strings.TrimSpace(pair.Text)
	if text == "" {
		return models.UploadedPair{}, fmt.Errorf("%w: empty caption for '%s'", utils.ErrImageRejected, pair.ImageURL)
	}

	normURL, _, err := parse.ParseAndNormalize(pair.ImageURL)
	if err != nil {
		return models.UploadedPair{}, fmt.Errorf("%w: image URL '%s': %w", utils.ErrImageRejected, pair.ImageURL, err)
	}

	if publicURL, ok := u.reuse(normURL, imgLog); ok {
		return models.UploadedPair{ImageURL: publicURL, Text: text, SourceURL: pair.SourceURL}, nil
	}

	var lastErr error
	attempts := 0
	for attempts < u.cfg.Attempts {
		attempts++
		publicURL, err := u.attempt(ctx, pair.ImageURL)
		if err == nil {
			imgLog.WithFields(logrus.Fields{"public_url": publicURL, "attempt": attempts}).Info("Image uploaded")
			u.record(normURL, &models.UploadDBEntry{Status: models.UploadStatusSuccess, PublicURL: publicURL, Attempts: attempts}, imgLog)
			return models.UploadedPair{ImageURL: publicURL, Text: text, SourceURL: pair.SourceURL}, nil
		}
		lastErr = err

		if utils.IsPermanent(err) || errors.Is(err, errNoPublicURL) || ctx.Err() != nil {
			if !errors.Is(err, context.Canceled) && ctx.Err() == nil {
				imgLog.WithField("error_type", utils.CategorizeError(err)).Infof("Image rejected: %v", err)
				u.record(normURL, &models.UploadDBEntry{Status: models.UploadStatusRejected, ErrorType: utils.CategorizeError(err), Attempts: attempts}, imgLog)
			}
			return models.UploadedPair{}, err
		}

		imgLog.WithFields(logrus.Fields{"attempt": attempts, "max_attempts": u.cfg.Attempts}).Warnf("Upload attempt failed: %v", err)
		if attempts < u.cfg.Attempts {
			if err := sleepCtx(ctx, u.cfg.RetryDelay); err != nil {
				return models.UploadedPair{}, err
			}
		}
	}

	finalErr := fmt.Errorf("%w: '%s' after %d attempts: %w", utils.ErrRetryFailed, pair.ImageURL, attempts, lastErr)
	imgLog.WithField("error_type", utils.CategorizeError(finalErr)).Error("Upload failed, dropping pair")
	u.record(normURL, &models.UploadDBEntry{Status: models.UploadStatusFailure, ErrorType: utils.CategorizeError(finalErr), Attempts: attempts}, imgLog)
	return models.UploadedPair{}, finalErr
}

// attempt performs one download, validate and store cycle
func (u *Uploader) attempt(ctx context.Context, imageURL string) (string, error) {
	resp, err := u.fetcher.Get(ctx, imageURL, u.timeout, u.cfg.MaxImageBytes)
	if err != nil {
		switch {
		case resp != nil:
			return "", fmt.Errorf("%w: status %d for '%s'", utils.ErrImageRejected, resp.StatusCode, imageURL)
		case errors.Is(err, utils.ErrParsing):
			return "", fmt.Errorf("%w: %w", utils.ErrImageRejected, err)
		}
		return "", err
	}

	contentType := resp.ContentType
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return "", fmt.Errorf("%w: content type '%s' is not an image", utils.ErrImageRejected, contentType)
	}
	if resp.Truncated {
		return "", fmt.Errorf("%w: image too large (over %d bytes)", utils.ErrImageRejected, u.cfg.MaxImageBytes)
	}
	if int64(len(resp.Body)) < u.cfg.MinImageBytes {
		return "", fmt.Errorf("%w: image too small (%d bytes, minimum %d)", utils.ErrImageRejected, len(resp.Body), u.cfg.MinImageBytes)
	}

	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}

	publicURL, err := u.store.Upload(ctx, resp.Body, u.cfg.Folder, u.newID(), contentType)
	if err != nil {
		if !errors.Is(err, utils.ErrContentStore) {
			err = fmt.Errorf("%w: %w", utils.ErrContentStore, err)
		}
		return "", err
	}
	if publicURL == "" {
		return "", errNoPublicURL
	}
	return publicURL, nil
}

// reuse returns the URL recorded by an earlier successful upload to the same destination
func (u *Uploader) reuse(normURL string, imgLog *logrus.Entry) (string, bool) {
	if u.ledger == nil {
		return "", false
	}
	status, entry, err := u.ledger.CheckUploadStatus(normURL)
	if err != nil {
		imgLog.Warnf("Ledger lookup failed, uploading again: %v", err)
		return "", false
	}
	if !status.Reusable() || entry == nil || entry.PublicURL == "" {
		return "", false
	}
	if entry.StoreID != u.storeID {
		imgLog.WithField("recorded_store", entry.StoreID).Debug("Earlier upload went to another store, uploading again")
		return "", false
	}
	imgLog.WithField("public_url", entry.PublicURL).Debug("Reusing earlier upload")
	return entry.PublicURL, true
}

func (u *Uploader) record(normURL string, entry *models.UploadDBEntry, imgLog *logrus.Entry) {
	if u.ledger == nil {
		return
	}
	entry.LastAttempt = time.Now()
	entry.StoreID = u.storeID
	if err := u.ledger.UpdateUploadStatus(normURL, entry); err != nil {
		imgLog.Warnf("Failed to record upload outcome: %v", err)
	}
}

// sleepCtx waits for d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
