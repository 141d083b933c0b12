package storage

import (
	"context"
	"time"

	"github.com/Sriram-PR/pair-scraper/pkg/models"
)

// UploadLedger remembers upload outcomes per source image across runs
type UploadLedger interface {
	// CheckUploadStatus retrieves the status and details of a normalized source image URL
	// Returns status (UploadStatusSuccess, UploadStatusRejected, UploadStatusFailure, UploadStatusNotFound, UploadStatusDBError),
	// the UploadDBEntry if found and parsed, and any error
	CheckUploadStatus(normalizedImgURL string) (status models.UploadStatus, entry *models.UploadDBEntry, err error)

	// UpdateUploadStatus records the outcome of an upload for a normalized source image URL
	UpdateUploadStatus(normalizedImgURL string, entry *models.UploadDBEntry) error
}

// LedgerAdmin handles lifecycle and administrative operations
type LedgerAdmin interface {
	// Count returns the number of images recorded in the ledger
	Count() (int, error)

	// RunGC runs periodic garbage collection. Should be run in a goroutine
	RunGC(ctx context.Context, interval time.Duration)

	// Close cleanly closes the database connection
	Close() error
}

// LedgerStore combines the ledger interfaces for components that need full access
type LedgerStore interface {
	UploadLedger
	LedgerAdmin
}
