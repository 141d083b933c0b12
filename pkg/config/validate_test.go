package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

func TestAppConfig_Validate_Defaults(t *testing.T) {
	cfg := AppConfig{} // Zero value
	warnings, err := cfg.Validate()

	require.NoError(t, err)

	assert.Equal(t, "Mozilla/5.0", cfg.UserAgent)
	assert.Equal(t, "https://zh.wikipedia.org/", cfg.Referer)
	assert.Equal(t, 20*time.Second, cfg.PageTimeout)
	assert.Equal(t, 10*time.Second, cfg.ImageTimeout)
	assert.Equal(t, "div#mw-content-text", cfg.ContentSelector)
	assert.Equal(t, 20, cfg.MaxItems)
	assert.False(t, cfg.DedupByURL)
	assert.Equal(t, 3, cfg.DefaultThreads)
	assert.Equal(t, "google", cfg.Search.Engine)

	// Upload defaults
	assert.Equal(t, "local", cfg.Upload.Store)
	assert.Equal(t, "paired_images", cfg.Upload.Folder)
	assert.Equal(t, int64(1024), cfg.Upload.MinImageBytes)
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.MaxImageBytes)
	assert.Equal(t, 3, cfg.Upload.Attempts)
	assert.Equal(t, 2*time.Second, cfg.Upload.RetryDelay)
	assert.False(t, cfg.Upload.LedgerEnabled())

	// Clean defaults
	assert.Equal(t, DefaultBadKeywords, cfg.Clean.BadKeywords)
	assert.Equal(t, 5, cfg.Clean.MinTextLength)
	assert.Equal(t, 256, cfg.Clean.ThumbnailSize)
	assert.Equal(t, 100, cfg.Clean.MinDimension)

	// Paths
	assert.Equal(t, "data/scraped/pairs.jsonl", cfg.Paths.ScrapedFile)
	assert.Equal(t, "data/cleaned/cleaned_pairs.jsonl", cfg.Paths.CleanedFile)
	assert.Equal(t, "data/exported", cfg.Paths.ExportDir)
	assert.Equal(t, "data/state", cfg.Paths.StateDir)

	// HTTP client defaults
	assert.Equal(t, 45*time.Second, cfg.HTTPClientSettings.Timeout)
	assert.Equal(t, 100, cfg.HTTPClientSettings.MaxIdleConns)
	assert.Equal(t, 15*time.Second, cfg.HTTPClientSettings.DialerTimeout)

	assert.True(t, containsWarning(warnings, "max_items should be > 0"))
	assert.True(t, containsWarning(warnings, "upload.store is empty"))
}

func TestAppConfig_Validate_PreservesValues(t *testing.T) {
	cfg := AppConfig{
		MaxItems:       50,
		DedupByURL:     true,
		DefaultThreads: 2,
		Search:         SearchConfig{Engine: "Bing"},
		Upload: UploadConfig{
			Store:        "s3",
			Folder:       "pairs",
			Attempts:     5,
			EnableLedger: true,
			S3:           S3Config{Bucket: "images"},
		},
		Clean: CleanConfig{BadKeywords: []string{"spam"}, MinTextLength: 8},
	}

	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.False(t, containsWarning(warnings, "max_items"))

	assert.Equal(t, 50, cfg.MaxItems)
	assert.True(t, cfg.DedupByURL)
	assert.Equal(t, 2, cfg.DefaultThreads)
	assert.Equal(t, "bing", cfg.Search.Engine)
	assert.Equal(t, "pairs", cfg.Upload.Folder)
	assert.Equal(t, 5, cfg.Upload.Attempts)
	assert.True(t, cfg.Upload.LedgerEnabled())
	assert.Equal(t, "us-east-1", cfg.Upload.S3.Region)
	assert.Equal(t, []string{"spam"}, cfg.Clean.BadKeywords)
	assert.Equal(t, 8, cfg.Clean.MinTextLength)
}

func TestAppConfig_Validate_ThreadCap(t *testing.T) {
	cfg := AppConfig{DefaultThreads: 9}
	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.DefaultThreads)
	assert.True(t, containsWarning(warnings, "default_threads"))
}

func TestAppConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  AppConfig
	}{
		{"unknown engine", AppConfig{Search: SearchConfig{Engine: "altavista"}}},
		{"custom without placeholder", AppConfig{Search: SearchConfig{Engine: "custom", URLTemplate: "https://x.test/?q="}}},
		{"unknown store", AppConfig{Upload: UploadConfig{Store: "ftp"}}},
		{"s3 without bucket", AppConfig{Upload: UploadConfig{Store: "s3"}}},
		{"min above max", AppConfig{Upload: UploadConfig{MinImageBytes: 10, MaxImageBytes: 5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, utils.ErrConfigValidation))
		})
	}
}

func TestAppConfig_Validate_CustomEngine(t *testing.T) {
	cfg := AppConfig{Search: SearchConfig{Engine: "custom", URLTemplate: "https://images.test/?q=%s"}}
	_, err := cfg.Validate()
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.Search.Engine)
}

func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
