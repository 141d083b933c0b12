package models

import "time"

// SeedTarget is one page to fetch, labelled with the keyword (or "custom") it came from
type SeedTarget struct {
	URL   string
	Label string
}

// RawPair is an image/caption candidate extracted from a page, not yet uploaded
type RawPair struct {
	ImageURL  string `json:"image_url"`
	Text      string `json:"text"`
	SourceURL string `json:"source_url"`
}

// UploadedPair is a RawPair whose image now lives in the content store.
// One JSON object per line in the scraped-pairs file.
type UploadedPair struct {
	ImageURL  string `json:"image_url"`
	Text      string `json:"text"`
	SourceURL string `json:"source_url"`
}

// CleanedPair is a normalized, deduplicated pair. One JSON object per line in the cleaned-pairs file.
type CleanedPair struct {
	Text     string `json:"text" parquet:"text"`
	ImageURL string `json:"image_url" parquet:"image_url"`
}

// UploadDBEntry stores the result of uploading a source image in the ledger
type UploadDBEntry struct {
	Status      UploadStatus `json:"status"`
	PublicURL   string       `json:"public_url,omitempty"` // Content store URL (on success)
	StoreID     string       `json:"store_id,omitempty"`   // Destination identity the URL belongs to
	ErrorType   string       `json:"error_type,omitempty"` // Error category (on failure)
	Attempts    int          `json:"attempts,omitempty"`   // Attempts used by the last upload
	LastAttempt time.Time    `json:"last_attempt"`         // Timestamp of the last upload attempt
}
