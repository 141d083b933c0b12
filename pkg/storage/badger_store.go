package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/pair-scraper/pkg/log"
	"github.com/Sriram-PR/pair-scraper/pkg/models"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

const (
	uploadKeyPrefix = "upload:"       // Prefix for source image URL keys in DB
	ledgerDBDir     = "upload_ledger" // Subdirectory name within stateDir for Badger DB files
)

// BadgerStore implements the LedgerStore interface using BadgerDB
type BadgerStore struct {
	db       *badger.DB
	log      *logrus.Entry
	keyCount atomic.Int64 // Cached key count for O(1) Count
}

// NewBadgerStore opens (or creates) the upload ledger under stateDir
func NewBadgerStore(stateDir string, logger *logrus.Entry) (*BadgerStore, error) {
	store := &BadgerStore{log: logger}
	dbPath := filepath.Join(stateDir, ledgerDBDir)

	logger.Infof("Initializing upload ledger at: %s", dbPath)

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create state directory %s: %w", utils.ErrFilesystem, dbPath, err)
	}

	opts := badger.DefaultOptions(dbPath).
		WithLogger(log.NewBadgerLogrusAdapter(logger)).
		WithNumVersionsToKeep(1) // Only the latest outcome matters

	var err error
	store.db, err = badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger database at %s: %w", utils.ErrDatabase, dbPath, err)
	}

	count, err := store.countKeys()
	if err != nil {
		logger.Warnf("Failed to count existing ledger keys: %v", err)
	} else {
		store.keyCount.Store(int64(count))
		logger.Debugf("Loaded existing ledger key count: %d", count)
	}

	return store, nil
}

// countKeys performs a one-time full key scan (used only during initialization)
func (s *BadgerStore) countKeys() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(uploadKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction conflicts.
// Concurrent upload workers may touch the same key when a page repeats an image.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// CheckUploadStatus implements the UploadLedger interface
func (s *BadgerStore) CheckUploadStatus(normalizedImgURL string) (models.UploadStatus, *models.UploadDBEntry, error) {
	status := models.UploadStatusNotFound
	var entry *models.UploadDBEntry
	key := []byte(uploadKeyPrefix + normalizedImgURL)

	errView := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return fmt.Errorf("%w: failed getting upload key '%s': %w", utils.ErrDatabase, string(key), errGet)
		}

		return item.Value(func(val []byte) error {
			if len(val) == 0 {
				s.log.Warnf("Upload key '%s' found with empty value, invalid state. Treating as 'not_found'.", string(key))
				return nil
			}

			var decoded models.UploadDBEntry
			if errJson := json.Unmarshal(val, &decoded); errJson != nil {
				s.log.Warnf("Failed to unmarshal UploadDBEntry for key '%s': %v. Treating as 'not_found'.", string(key), errJson)
				return nil
			}
			if !decoded.Status.IsValid() {
				s.log.Warnf("Upload key '%s' has unknown status '%s'. Treating as 'not_found'.", string(key), decoded.Status)
				return nil
			}

			entry = &decoded
			status = decoded.Status
			return nil
		})
	})

	if errView != nil {
		s.log.Errorf("DB View error in CheckUploadStatus for key '%s': %v", string(key), errView)
		return models.UploadStatusDBError, nil, errView
	}

	return status, entry, nil
}

// UpdateUploadStatus implements the UploadLedger interface
func (s *BadgerStore) UpdateUploadStatus(normalizedImgURL string, entry *models.UploadDBEntry) error {
	if s.db == nil {
		return fmt.Errorf("%w: ledger not initialized", utils.ErrDatabase)
	}
	if !entry.Status.IsValid() {
		return fmt.Errorf("%w: refusing to store status '%s'", utils.ErrDatabase, entry.Status)
	}
	key := []byte(uploadKeyPrefix + normalizedImgURL)

	entryBytes, errJson := json.Marshal(entry)
	if errJson != nil {
		wrappedErr := fmt.Errorf("%w: failed to marshal UploadDBEntry for key '%s': %w", utils.ErrParsing, string(key), errJson)
		s.log.Error(wrappedErr)
		return wrappedErr
	}

	isNew := false
	err := s.dbUpdate(func(txn *badger.Txn) error {
		_, errGet := txn.Get(key)
		isNew = errors.Is(errGet, badger.ErrKeyNotFound)
		return txn.SetEntry(badger.NewEntry(key, entryBytes))
	})

	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB Update error in UpdateUploadStatus: %v", err)
		return fmt.Errorf("%w: failed setting upload status for key '%s': %w", utils.ErrDatabase, string(key), err)
	}
	if isNew {
		s.keyCount.Add(1)
	}

	s.log.Debugf("Updated upload status for key '%s' to '%s'", string(key), entry.Status)
	return nil
}

// Count implements the LedgerAdmin interface.
// Returns the cached key count maintained by atomic increments on writes.
func (s *BadgerStore) Count() (int, error) {
	return int(s.keyCount.Load()), nil
}

// RunGC runs BadgerDB's garbage collection periodically
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Debug("BadgerDB GC goroutine started.")

	for {
		select {
		case <-ticker.C:
			if s.db == nil || s.db.IsClosed() {
				s.log.Debug("DB GC: Database is nil or closed, skipping GC cycle.")
				continue
			}

			var err error
			// Loop GC until it returns ErrNoRewrite or another error
			for {
				if err = s.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}
			if !errors.Is(err, badger.ErrNoRewrite) {
				s.log.Errorf("BadgerDB GC error: %v", err)
			}

		case <-ctx.Done():
			s.log.Debugf("Stopping BadgerDB garbage collection goroutine: %v", ctx.Err())
			return
		}
	}
}

// Close implements the LedgerAdmin interface
func (s *BadgerStore) Close() error {
	if s.db != nil && !s.db.IsClosed() {
		s.log.Debug("Closing upload ledger...")
		if err := s.db.Close(); err != nil {
			s.log.Errorf("Error closing upload ledger: %v", err)
			return fmt.Errorf("%w: closing ledger: %w", utils.ErrDatabase, err)
		}
	}
	return nil
}
