package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/pair-scraper/pkg/config"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

// LocalStore writes images below a directory that is served at BaseURL.
// With no BaseURL it returns file:// URLs.
type LocalStore struct {
	dir     string
	baseURL string
	log     *logrus.Entry
}

// NewLocalStore creates a LocalStore
func NewLocalStore(cfg config.LocalStoreConfig, log *logrus.Entry) *LocalStore {
	return &LocalStore{dir: cfg.Dir, baseURL: strings.TrimRight(cfg.BaseURL, "/"), log: log}
}

// Upload implements ContentStore
func (s *LocalStore) Upload(ctx context.Context, data []byte, folder, id, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := ObjectKey(utils.SanitizePathSegment(folder), utils.SanitizePathSegment(id), contentType)
	dest := filepath.Join(s.dir, filepath.FromSlash(key))

	err := utils.WriteFileAtomic(dest, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(data))
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: writing '%s': %w", utils.ErrContentStore, dest, err)
	}
	s.log.WithFields(logrus.Fields{"path": dest, "bytes": len(data)}).Debug("Stored file")

	if s.baseURL != "" {
		return s.baseURL + "/" + key, nil
	}
	abs, err := filepath.Abs(dest)
	if err != nil {
		return "", fmt.Errorf("%w: resolving '%s': %w", utils.ErrContentStore, dest, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
