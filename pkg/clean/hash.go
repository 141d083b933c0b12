package clean

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/Sriram-PR/pair-scraper/pkg/config"
	"github.com/Sriram-PR/pair-scraper/pkg/fetch"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

// ImageHasher returns a perceptual fingerprint of the image at url.
// Any error means the image is unusable.
type ImageHasher interface {
	Hash(ctx context.Context, url string) (string, error)
}

// PerceptualHasher loads an image, thumbnails it and computes its phash
type PerceptualHasher struct {
	fetcher       *fetch.Fetcher
	timeout       time.Duration
	maxBytes      int64
	thumbnailSize int
	minDimension  int
}

// NewPerceptualHasher creates a PerceptualHasher from the application config
func NewPerceptualHasher(fetcher *fetch.Fetcher, cfg *config.AppConfig) *PerceptualHasher {
	return &PerceptualHasher{
		fetcher:       fetcher,
		timeout:       cfg.ImageTimeout,
		maxBytes:      cfg.Upload.MaxImageBytes,
		thumbnailSize: cfg.Clean.ThumbnailSize,
		minDimension:  cfg.Clean.MinDimension,
	}
}

// Hash implements ImageHasher. file:// URLs written by a local content store are read from disk.
func (h *PerceptualHasher) Hash(ctx context.Context, imageURL string) (string, error) {
	body, truncated, err := h.load(ctx, imageURL)
	if err != nil {
		return "", err
	}
	if truncated {
		return "", fmt.Errorf("%w: image too large to hash: '%s'", utils.ErrImageRejected, imageURL)
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: decoding image '%s': %w", utils.ErrParsing, imageURL, err)
	}
	return h.HashImage(img)
}

func (h *PerceptualHasher) load(ctx context.Context, imageURL string) ([]byte, bool, error) {
	if u, err := url.Parse(imageURL); err == nil && u.Scheme == "file" {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		return readLimited(filepath.FromSlash(u.Path), h.maxBytes)
	}
	resp, err := h.fetcher.Get(ctx, imageURL, h.timeout, h.maxBytes)
	if err != nil {
		return nil, false, err
	}
	return resp.Body, resp.Truncated, nil
}

// readLimited reads at most maxBytes of path and reports whether more remained
func readLimited(path string, maxBytes int64) ([]byte, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("%w: opening image '%s': %w", utils.ErrFilesystem, path, err)
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, false, fmt.Errorf("%w: reading image '%s': %w", utils.ErrFilesystem, path, err)
	}
	if int64(len(body)) > maxBytes {
		return body[:maxBytes], true, nil
	}
	return body, false, nil
}

// HashImage thumbnails img and returns its phash as 16 hex digits
func (h *PerceptualHasher) HashImage(img image.Image) (string, error) {
	thumb := Thumbnail(img, h.thumbnailSize)
	b := thumb.Bounds()
	if b.Dx() < h.minDimension || b.Dy() < h.minDimension {
		return "", fmt.Errorf("%w: image too small (%dx%d after thumbnail, minimum %d)",
			utils.ErrImageRejected, b.Dx(), b.Dy(), h.minDimension)
	}

	hash, err := goimagehash.PerceptionHash(thumb)
	if err != nil {
		return "", fmt.Errorf("%w: computing phash: %w", utils.ErrParsing, err)
	}
	return fmt.Sprintf("%016x", hash.GetHash()), nil
}

// Thumbnail returns an RGBA copy of img scaled to fit within size×size, keeping its
// aspect ratio. Images that already fit are copied unscaled.
func Thumbnail(img image.Image, size int) *image.RGBA {
	src := img.Bounds()
	w, h := src.Dx(), src.Dy()

	if size > 0 && (w > size || h > size) {
		scale := math.Min(float64(size)/float64(w), float64(size)/float64(h))
		w = max(1, int(math.Round(float64(w)*scale)))
		h = max(1, int(math.Round(float64(h)*scale)))
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == src.Dx() && h == src.Dy() {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst
}
