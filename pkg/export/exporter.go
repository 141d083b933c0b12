// Package export republishes the cleaned pairs as JSONL, CSV or Parquet.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/pair-scraper/pkg/models"
	"github.com/Sriram-PR/pair-scraper/pkg/storage"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

// Supported formats
const (
	FormatJSONL   = "jsonl"
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// FileBaseName is the output file name without extension
const FileBaseName = "cleaned_pairs"

var csvHeader = []string{"image_url", "text"}

// CleanedSource supplies the cleaned pairs to export
type CleanedSource interface {
	ReadCleaned() ([]models.CleanedPair, error)
}

// Result describes a completed export
type Result struct {
	Format string `json:"format"`
	Path   string `json:"path"`
	Count  int    `json:"count"`
}

// Exporter writes the cleaned pairs to the export directory in one of the supported formats
type Exporter struct {
	source CleanedSource
	dir    string
	log    *logrus.Entry
}

// NewExporter creates an Exporter reading from source and writing under dir
func NewExporter(source CleanedSource, dir string, log *logrus.Entry) *Exporter {
	return &Exporter{source: source, dir: dir, log: log}
}

// ParseFormat lowercases format and checks it is supported
func ParseFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case FormatJSONL, FormatCSV, FormatParquet:
		return f, nil
	}
	return "", fmt.Errorf("%w: '%s' (supported: jsonl, csv, parquet)", utils.ErrUnsupportedFormat, format)
}

// Export writes every cleaned pair to <dir>/cleaned_pairs.<format>, replacing any previous export.
// The format is checked before any file is touched.
func (e *Exporter) Export(format string) (Result, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return Result{}, err
	}

	pairs, err := e.source.ReadCleaned()
	if err != nil {
		return Result{}, err
	}

	path := filepath.Join(e.dir, FileBaseName+"."+f)
	switch f {
	case FormatJSONL:
		err = storage.WriteJSONL(path, pairs)
	case FormatCSV:
		err = utils.WriteFileAtomic(path, func(w io.Writer) error { return writeCSV(w, pairs) })
	case FormatParquet:
		err = utils.WriteFileAtomic(path, func(w io.Writer) error { return writeParquet(w, pairs) })
	}
	if err != nil {
		return Result{}, err
	}

	e.log.WithFields(logrus.Fields{"format": f, "path": path, "count": len(pairs)}).Info("Export complete")
	return Result{Format: f, Path: path, Count: len(pairs)}, nil
}

func writeCSV(w io.Writer, pairs []models.CleanedPair) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range pairs {
		if err := cw.Write([]string{p.ImageURL, p.Text}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeParquet(w io.Writer, pairs []models.CleanedPair) error {
	pw := parquet.NewGenericWriter[models.CleanedPair](w)
	if _, err := pw.Write(pairs); err != nil {
		pw.Close()
		return fmt.Errorf("writing parquet rows: %w", err)
	}
	return pw.Close()
}
