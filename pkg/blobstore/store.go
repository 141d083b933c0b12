// Package blobstore re-hosts accepted images and returns their public URLs.
package blobstore

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/pair-scraper/pkg/config"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

// ContentStore hosts image bytes under folder/id and returns a stable public URL
type ContentStore interface {
	Upload(ctx context.Context, data []byte, folder, id, contentType string) (string, error)
}

// New builds the ContentStore selected by cfg.Store
func New(ctx context.Context, cfg config.UploadConfig, creds config.Credentials, log *logrus.Entry) (ContentStore, error) {
	switch cfg.Store {
	case "s3":
		return NewS3Store(ctx, cfg.S3, creds, log)
	case "local":
		return NewLocalStore(cfg.Local, log), nil
	}
	return nil, fmt.Errorf("%w: unknown content store '%s'", utils.ErrConfigValidation, cfg.Store)
}

var extByType = map[string]string{
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/pjpeg":   ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/bmp":     ".bmp",
	"image/svg+xml": ".svg",
	"image/avif":    ".avif",
	"image/tiff":    ".tiff",
	"image/x-icon":  ".ico",
}

// ObjectKey returns "folder/id.ext", the extension derived from contentType when known
func ObjectKey(folder, id, contentType string) string {
	return path.Join(folder, id+extensionFor(contentType))
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return extByType[strings.ToLower(mediaType)]
}
