package models

// UploadStatus represents the outcome recorded for a source image in the upload ledger
type UploadStatus string

const (
	UploadStatusUnset    UploadStatus = ""          // Zero value = unset/unknown
	UploadStatusSuccess  UploadStatus = "success"   // Image re-hosted; PublicURL is set
	UploadStatusRejected UploadStatus = "rejected"  // Image failed validation (type/size/status)
	UploadStatusFailure  UploadStatus = "failure"   // Transient failures exhausted all attempts
	UploadStatusNotFound UploadStatus = "not_found" // Image not in ledger
	UploadStatusDBError  UploadStatus = "db_error"  // Database error occurred
)

// String implements fmt.Stringer for logging
func (s UploadStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status can be stored in the ledger
func (s UploadStatus) IsValid() bool {
	switch s {
	case UploadStatusSuccess, UploadStatusRejected, UploadStatusFailure:
		return true
	}
	return false
}

// Reusable reports whether a ledger entry lets the uploader skip the network
func (s UploadStatus) Reusable() bool {
	return s == UploadStatusSuccess
}
