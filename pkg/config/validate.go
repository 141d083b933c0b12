package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

// Defaults mirrored by Validate
const (
	DefaultUserAgent       = "Mozilla/5.0"
	DefaultReferer         = "https://zh.wikipedia.org/"
	DefaultContentSelector = "div#mw-content-text"
	DefaultMaxItems        = 20
	DefaultThreads         = 3
	DefaultFolder          = "paired_images"
	DefaultMinImageBytes   = 1024
	DefaultMaxImageBytes   = 5 * 1024 * 1024
)

// DefaultBadKeywords are promotional markers that disqualify a caption
var DefaultBadKeywords = []string{"广告", "促销", "点击", "购买", "赞助", "点我", "扫码"}

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Referer == "" {
		c.Referer = DefaultReferer
	}

	// Timeouts
	if c.PageTimeout <= 0 {
		c.PageTimeout = 20 * time.Second
	}
	if c.ImageTimeout <= 0 {
		c.ImageTimeout = 10 * time.Second
	}
	if c.MaxPageBytes <= 0 {
		c.MaxPageBytes = 20 * 1024 * 1024
	}

	if c.ContentSelector == "" {
		c.ContentSelector = DefaultContentSelector
	}

	if c.DelayPerHost < 0 {
		warnings = append(warnings, "delay_per_host cannot be negative, disabling per-host delay")
		c.DelayPerHost = 0
	}

	if c.MaxRequestsPerHost < 0 {
		warnings = append(warnings, "max_requests_per_host cannot be negative, disabling per-host limit")
		c.MaxRequestsPerHost = 0
	}

	// MaxItems
	if c.MaxItems <= 0 {
		warnings = append(warnings, fmt.Sprintf("max_items should be > 0, defaulting to %d", DefaultMaxItems))
		c.MaxItems = DefaultMaxItems
	}

	// DefaultThreads
	if c.DefaultThreads <= 0 {
		c.DefaultThreads = DefaultThreads
	} else if c.DefaultThreads > 5 {
		warnings = append(warnings, fmt.Sprintf("default_threads (%d) exceeds 5, capping", c.DefaultThreads))
		c.DefaultThreads = 5
	}

	if err := c.validateSearch(); err != nil {
		return warnings, err
	}

	uploadWarnings, err := c.validateUpload()
	warnings = append(warnings, uploadWarnings...)
	if err != nil {
		return warnings, err
	}

	c.validateClean()
	c.validatePaths()
	c.validateServer()
	c.validateWatch()
	c.validateHTTPClientSettings()

	return warnings, nil
}

func (c *AppConfig) validateSearch() error {
	s := &c.Search
	s.Engine = strings.ToLower(strings.TrimSpace(s.Engine))
	if s.Engine == "" {
		s.Engine = "google"
	}
	switch s.Engine {
	case "google", "bing", "baidu":
		return nil
	case "custom":
		if strings.Count(s.URLTemplate, "%s") != 1 {
			return fmt.Errorf("%w: search.url_template must contain exactly one %%s placeholder", utils.ErrConfigValidation)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown search.engine '%s' (supported: google, bing, baidu, custom)", utils.ErrConfigValidation, s.Engine)
}

func (c *AppConfig) validateUpload() (warnings []string, err error) {
	u := &c.Upload
	u.Store = strings.ToLower(strings.TrimSpace(u.Store))
	if u.Store == "" {
		warnings = append(warnings, "upload.store is empty, defaulting to 'local'")
		u.Store = "local"
	}
	if u.Folder == "" {
		u.Folder = DefaultFolder
	}
	if u.MinImageBytes <= 0 {
		u.MinImageBytes = DefaultMinImageBytes
	}
	if u.MaxImageBytes <= 0 {
		u.MaxImageBytes = DefaultMaxImageBytes
	}
	if u.MinImageBytes > u.MaxImageBytes {
		return warnings, fmt.Errorf("%w: upload.min_image_bytes (%d) > upload.max_image_bytes (%d)",
			utils.ErrConfigValidation, u.MinImageBytes, u.MaxImageBytes)
	}
	if u.Attempts <= 0 {
		u.Attempts = 3
	}
	if u.RetryDelay <= 0 {
		u.RetryDelay = 2 * time.Second
	}

	switch u.Store {
	case "s3":
		if u.S3.Bucket == "" {
			return warnings, fmt.Errorf("%w: upload.s3.bucket is required for the s3 store", utils.ErrConfigValidation)
		}
		if u.S3.Region == "" {
			u.S3.Region = "us-east-1"
		}
	case "local":
		if u.Local.Dir == "" {
			u.Local.Dir = "./data/images"
		}
		if u.Local.BaseURL == "" {
			warnings = append(warnings, "upload.local.base_url is empty, returning file:// URLs")
		}
	default:
		return warnings, fmt.Errorf("%w: unknown upload.store '%s' (supported: s3, local)", utils.ErrConfigValidation, u.Store)
	}
	return warnings, nil
}

func (c *AppConfig) validateClean() {
	cl := &c.Clean
	if cl.BadKeywords == nil {
		cl.BadKeywords = append([]string(nil), DefaultBadKeywords...)
	}
	if cl.MinTextLength <= 0 {
		cl.MinTextLength = 5
	}
	if cl.ThumbnailSize <= 0 {
		cl.ThumbnailSize = 256
	}
	if cl.MinDimension <= 0 {
		cl.MinDimension = 100
	}
}

func (c *AppConfig) validatePaths() {
	p := &c.Paths
	if p.ScrapedFile == "" {
		p.ScrapedFile = "data/scraped/pairs.jsonl"
	}
	if p.CleanedFile == "" {
		p.CleanedFile = "data/cleaned/cleaned_pairs.jsonl"
	}
	if p.ExportDir == "" {
		p.ExportDir = "data/exported"
	}
	if p.StateDir == "" {
		p.StateDir = "data/state"
	}
}

func (c *AppConfig) validateServer() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
}

func (c *AppConfig) validateWatch() {
	if c.Watch.Interval == "" {
		c.Watch.Interval = "24h"
	}
	if c.Watch.Threads <= 0 {
		c.Watch.Threads = c.DefaultThreads
	}
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.Timeout <= 0 {
		h.Timeout = 45 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 4
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}
