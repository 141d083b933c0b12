package utils

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrRetryFailed        = errors.New("request failed after all retries") // Wraps the last underlying error
	ErrClientHTTPError    = errors.New("client HTTP error (4xx)")          // Wraps original error/status
	ErrServerHTTPError    = errors.New("server HTTP error (5xx)")          // Wraps original error/status
	ErrOtherHTTPError     = errors.New("other HTTP error (non-2xx)")       // Wraps original error/status
	ErrRobotsDisallowed   = errors.New("disallowed by robots.txt")
	ErrImageRejected      = errors.New("image rejected") // Permanent: wrong type, too small, too large, bad status
	ErrContentStore       = errors.New("content store error")
	ErrParsing            = errors.New("parsing error")    // Wraps specific parsing error (HTML, URL, JSON, image)
	ErrFilesystem         = errors.New("filesystem error") // Wraps os errors
	ErrDatabase           = errors.New("database error")   // Wraps badger errors
	ErrRequestCreation    = errors.New("failed to create HTTP request")
	ErrResponseBodyRead   = errors.New("failed to read response body")
	ErrConfigValidation   = errors.New("configuration validation error")
	ErrNoInput            = errors.New("input file not found")
	ErrUnsupportedFormat  = errors.New("unsupported export format")
	ErrInvalidThreads     = errors.New("threads must be an integer between 1 and 5")
	ErrInvalidConcurrency = errors.New("concurrency must be at least 1")
	ErrEmptySeed          = errors.New("seed is empty")
	ErrRunInProgress      = errors.New("another run is in progress")
)

// CategorizeError maps an error to a predefined category string for logging and the upload ledger.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrRetryFailed):
		// Wrapped as "%w: %w", so inspect the whole chain rather than a single Unwrap
		if errors.Is(err, ErrServerHTTPError) {
			return "RetryFailed_HTTPServer"
		}
		if errors.Is(err, ErrContentStore) {
			return "RetryFailed_ContentStore"
		}
		errMsg := strings.TrimPrefix(err.Error(), ErrRetryFailed.Error())
		if strings.TrimLeft(errMsg, ": ") == "" {
			return "RetryFailed_Unknown"
		}
		if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "Timeout") || strings.Contains(errMsg, "deadline exceeded") {
			return "RetryFailed_NetworkTimeout"
		}
		if strings.Contains(errMsg, "connection refused") {
			return "RetryFailed_ConnectionRefused"
		}
		if strings.Contains(errMsg, "no such host") {
			return "RetryFailed_DNSLookup"
		}
		return "RetryFailed_NetworkOther"
	case errors.Is(err, ErrImageRejected):
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "content type"):
			return "Image_ContentType"
		case strings.Contains(errMsg, "too small"):
			return "Image_TooSmall"
		case strings.Contains(errMsg, "too large"):
			return "Image_TooLarge"
		case strings.Contains(errMsg, "status"):
			return "Image_HTTPStatus"
		}
		return "Image_Rejected"
	case errors.Is(err, ErrClientHTTPError):
		errMsg := err.Error()
		if strings.Contains(errMsg, " 404 ") {
			return "HTTP_404"
		}
		if strings.Contains(errMsg, " 403 ") {
			return "HTTP_403"
		}
		if strings.Contains(errMsg, " 429 ") {
			return "HTTP_429"
		}
		return "HTTP_4xx"
	case errors.Is(err, ErrServerHTTPError):
		return "HTTP_5xx"
	case errors.Is(err, ErrOtherHTTPError):
		return "HTTP_OtherStatus"
	case errors.Is(err, ErrRobotsDisallowed):
		return "Policy_Robots"
	case errors.Is(err, ErrContentStore):
		return "ContentStore_Upload"
	case errors.Is(err, ErrParsing):
		errMsg := err.Error()
		if strings.Contains(errMsg, "URL") {
			return "Content_ParsingURL"
		}
		if strings.Contains(errMsg, "HTML") {
			return "Content_ParsingHTML"
		}
		if strings.Contains(errMsg, "JSON") {
			return "Content_ParsingJSON"
		}
		if strings.Contains(errMsg, "image") {
			return "Content_ParsingImage"
		}
		return "Content_ParsingOther"
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		return "Filesystem_Other"
	case errors.Is(err, ErrDatabase):
		return "Database_Other"
	case errors.Is(err, ErrRequestCreation):
		return "Internal_RequestCreation"
	case errors.Is(err, ErrResponseBodyRead):
		return "Network_BodyRead"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	case errors.Is(err, ErrNoInput):
		return "Input_Missing"
	case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrInvalidThreads),
		errors.Is(err, ErrInvalidConcurrency), errors.Is(err, ErrEmptySeed):
		return "Input_Invalid"
	}

	// --- Fallback checks for common underlying error types/strings ---
	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Network_Timeout"
	}
	lowerErrMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lowerErrMsg, "timeout"):
		return "Network_TimeoutGeneric"
	case strings.Contains(lowerErrMsg, "connection refused"):
		return "Network_ConnectionRefused"
	case strings.Contains(lowerErrMsg, "no such host"):
		return "Network_DNSLookup"
	case strings.Contains(lowerErrMsg, "tls") || strings.Contains(lowerErrMsg, "certificate"):
		return "Network_TLS"
	case strings.Contains(lowerErrMsg, "reset by peer"):
		return "Network_ConnectionReset"
	}

	return "Unknown"
}

// IsPermanent reports whether retrying the operation that produced err cannot succeed.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrImageRejected) ||
		errors.Is(err, ErrRequestCreation) ||
		errors.Is(err, ErrRobotsDisallowed) ||
		errors.Is(err, context.Canceled)
}
