package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/pair-scraper/pkg/models"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

// MalformedFunc is called for a line that is not a valid JSON record.
// lineNo is 1-based.
type MalformedFunc func(lineNo int, err error)

// PairStore reads and writes the scraped and cleaned pair files.
// Each write replaces the whole file; callers serialize runs.
type PairStore struct {
	scrapedPath string
	cleanedPath string
	log         *logrus.Entry
}

// NewPairStore creates a PairStore for the given file locations
func NewPairStore(scrapedPath, cleanedPath string, log *logrus.Entry) *PairStore {
	return &PairStore{scrapedPath: scrapedPath, cleanedPath: cleanedPath, log: log}
}

// ScrapedPath returns the location of the scraped-pairs file
func (s *PairStore) ScrapedPath() string { return s.scrapedPath }

// CleanedPath returns the location of the cleaned-pairs file
func (s *PairStore) CleanedPath() string { return s.cleanedPath }

// WriteScraped replaces the scraped-pairs file with pairs
func (s *PairStore) WriteScraped(pairs []models.UploadedPair) error {
	if err := WriteJSONL(s.scrapedPath, pairs); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"path": s.scrapedPath, "count": len(pairs)}).Info("Wrote scraped pairs")
	return nil
}

// ScanScraped streams every record of the scraped-pairs file to onRecord.
// Malformed lines go to onMalformed and do not stop the scan.
// Returns utils.ErrNoInput when the file does not exist.
func (s *PairStore) ScanScraped(onRecord func(models.UploadedPair) error, onMalformed MalformedFunc) error {
	return ScanJSONL(s.scrapedPath, onRecord, onMalformed)
}

// WriteCleaned replaces the cleaned-pairs file with pairs
func (s *PairStore) WriteCleaned(pairs []models.CleanedPair) error {
	if err := WriteJSONL(s.cleanedPath, pairs); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"path": s.cleanedPath, "count": len(pairs)}).Info("Wrote cleaned pairs")
	return nil
}

// ReadCleaned loads every record of the cleaned-pairs file.
// A malformed line is an error here, since the file is produced by this program.
func (s *PairStore) ReadCleaned() ([]models.CleanedPair, error) {
	var pairs []models.CleanedPair
	var badLine error
	err := ScanJSONL(s.cleanedPath,
		func(p models.CleanedPair) error {
			pairs = append(pairs, p)
			return nil
		},
		func(lineNo int, err error) {
			if badLine == nil {
				badLine = fmt.Errorf("%w: JSON on line %d of '%s': %w", utils.ErrParsing, lineNo, s.cleanedPath, err)
			}
		})
	if err != nil {
		return nil, err
	}
	if badLine != nil {
		return nil, badLine
	}
	return pairs, nil
}

// WriteJSONL atomically replaces path with one JSON object per line.
// HTML characters are not escaped so text survives unchanged.
func WriteJSONL[T any](path string, records []T) error {
	return utils.WriteFileAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for i := range records {
			if err := enc.Encode(records[i]); err != nil {
				return fmt.Errorf("%w: encoding JSON record %d for '%s': %w", utils.ErrParsing, i, path, err)
			}
		}
		return nil
	})
}

// ScanJSONL decodes each non-blank line of path into a T.
// An error returned by onRecord aborts the scan and is returned as is.
func ScanJSONL[T any](path string, onRecord func(T) error, onMalformed MalformedFunc) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: '%s'", utils.ErrNoInput, path)
		}
		return fmt.Errorf("%w: opening '%s': %w", utils.ErrFilesystem, path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	lineNo := 0
	for {
		line, readErr := r.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
				var rec T
				if err := json.Unmarshal(trimmed, &rec); err != nil {
					if onMalformed != nil {
						onMalformed(lineNo, err)
					}
				} else if err := onRecord(rec); err != nil {
					return err
				}
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("%w: reading '%s': %w", utils.ErrFilesystem, path, readErr)
		}
	}
}
