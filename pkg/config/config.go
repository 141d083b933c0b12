package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

// AppConfig holds the global application configuration
type AppConfig struct {
	UserAgent          string           `yaml:"user_agent"`
	Referer            string           `yaml:"referer"`
	PageTimeout        time.Duration    `yaml:"page_timeout,omitempty"`
	ImageTimeout       time.Duration    `yaml:"image_timeout,omitempty"`
	MaxPageBytes       int64            `yaml:"max_page_bytes,omitempty"`
	ContentSelector    string           `yaml:"content_selector"`
	RespectRobots      bool             `yaml:"respect_robots,omitempty"`
	DelayPerHost       time.Duration    `yaml:"delay_per_host,omitempty"`
	MaxRequestsPerHost int              `yaml:"max_requests_per_host,omitempty"` // 0 = bounded only by the worker pool
	MaxItems           int              `yaml:"max_items"`
	DedupByURL         bool             `yaml:"dedup_by_url,omitempty"`
	DefaultThreads     int              `yaml:"default_threads,omitempty"`
	Search             SearchConfig     `yaml:"search"`
	Upload             UploadConfig     `yaml:"upload"`
	Clean              CleanConfig      `yaml:"clean"`
	Paths              PathsConfig      `yaml:"paths"`
	Server             ServerConfig     `yaml:"server,omitempty"`
	Watch              WatchConfig      `yaml:"watch,omitempty"`
	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
}

// SearchConfig selects how "search:" seeds are turned into result-page URLs
type SearchConfig struct {
	Engine      string `yaml:"engine"`                 // google, bing, baidu or custom
	URLTemplate string `yaml:"url_template,omitempty"` // Required for custom; one %s placeholder for the escaped keyword
}

// UploadConfig controls image validation and re-hosting
type UploadConfig struct {
	Store         string           `yaml:"store"` // "s3" or "local"
	Folder        string           `yaml:"folder"`
	MinImageBytes int64            `yaml:"min_image_bytes,omitempty"`
	MaxImageBytes int64            `yaml:"max_image_bytes,omitempty"`
	Attempts      int              `yaml:"attempts,omitempty"`
	RetryDelay    time.Duration    `yaml:"retry_delay,omitempty"`
	EnableLedger  bool             `yaml:"enable_ledger,omitempty"` // Reuse earlier uploads of the same source image (opt-in)
	S3            S3Config         `yaml:"s3,omitempty"`
	Local         LocalStoreConfig `yaml:"local,omitempty"`
}

// S3Config describes an S3-compatible bucket used as the content store
type S3Config struct {
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint,omitempty"` // Custom endpoint (MinIO, R2, localstack)
	UsePathStyle  bool   `yaml:"use_path_style,omitempty"`
	PublicBaseURL string `yaml:"public_base_url,omitempty"` // Prefix for returned URLs; derived from endpoint/bucket when empty
}

// LocalStoreConfig describes a directory served under BaseURL
type LocalStoreConfig struct {
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`
}

// CleanConfig holds the text and image quality thresholds
type CleanConfig struct {
	BadKeywords   []string `yaml:"bad_keywords,omitempty"`
	MinTextLength int      `yaml:"min_text_length,omitempty"`
	ThumbnailSize int      `yaml:"thumbnail_size,omitempty"`
	MinDimension  int      `yaml:"min_dimension,omitempty"`
}

// PathsConfig holds on-disk locations of the pair stores
type PathsConfig struct {
	ScrapedFile string `yaml:"scraped_file"`
	CleanedFile string `yaml:"cleaned_file"`
	ExportDir   string `yaml:"export_dir"`
	StateDir    string `yaml:"state_dir"`
}

// ServerConfig holds HTTP front-end settings
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// WatchConfig lists seeds re-run periodically in watch mode
type WatchConfig struct {
	Seeds        []string `yaml:"seeds,omitempty"`
	Interval     string   `yaml:"interval,omitempty"`
	Threads      int      `yaml:"threads,omitempty"`
	ExportFormat string   `yaml:"export_format,omitempty"` // Empty disables the export step
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout (per-request timeouts are applied via context)
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// LedgerEnabled reports whether successful uploads are remembered across runs
func (u UploadConfig) LedgerEnabled() bool {
	return u.EnableLedger
}

// StoreIdentity names the destination uploads land in: store kind, location and folder.
// A ledger entry is only reused by an uploader with the same identity.
func (u UploadConfig) StoreIdentity() string {
	switch u.Store {
	case "s3":
		return strings.Join([]string{"s3", u.S3.Endpoint, u.S3.Bucket, u.S3.PublicBaseURL, u.Folder}, "|")
	default:
		return strings.Join([]string{u.Store, u.Local.Dir, u.Local.BaseURL, u.Folder}, "|")
	}
}

// Load reads a YAML config file. A missing file yields a zero config so that
// Validate fills in every default.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("%w: reading config '%s': %w", utils.ErrFilesystem, path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing config '%s': %w", utils.ErrConfigValidation, path, err)
	}
	return &cfg, nil
}
