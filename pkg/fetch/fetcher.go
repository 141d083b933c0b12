package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/pair-scraper/pkg/config"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

// drainLimit caps how much of an unwanted body is read to let the connection be reused
const drainLimit = 64 * 1024

// Response is a fully read HTTP response
type Response struct {
	URL         *url.URL // Final URL after redirects
	StatusCode  int
	ContentType string
	Body        []byte
	Truncated   bool // Body exceeded the caller's byte limit; Body holds only the prefix
}

// Fetcher performs single-attempt GETs with browser-like headers.
// Politeness (robots.txt, per-host delay, per-host concurrency) is applied when configured.
// Retrying is left to callers, which know whether a failure is worth repeating.
type Fetcher struct {
	client    *http.Client
	userAgent string
	referer   string
	limiter   *RateLimiter
	hosts     *HostSemaphorePool
	robots    *RobotsHandler
	log       *logrus.Entry
}

// NewFetcher creates a Fetcher from the application config
func NewFetcher(client *http.Client, cfg *config.AppConfig, log *logrus.Entry) *Fetcher {
	f := &Fetcher{
		client:    client,
		userAgent: cfg.UserAgent,
		referer:   cfg.Referer,
		limiter:   NewRateLimiter(cfg.DelayPerHost, log),
		hosts:     NewHostSemaphorePool(cfg.MaxRequestsPerHost, log),
		log:       log,
	}
	if cfg.RespectRobots {
		f.robots = NewRobotsHandler(f, cfg.UserAgent, log)
	}
	return f
}

// UserAgent returns the agent string sent with every request
func (f *Fetcher) UserAgent() string { return f.userAgent }

// Get fetches rawURL within timeout, reading at most maxBytes of body (0 = unlimited).
// Any status other than 200 is returned as an error wrapping a status sentinel,
// together with a Response carrying the status (and no body).
func (f *Fetcher) Get(ctx context.Context, rawURL string, timeout time.Duration, maxBytes int64) (*Response, error) {
	u, err := parseHTTPURL(rawURL)
	if err != nil {
		return nil, err
	}

	if f.robots != nil && !f.robots.TestAgent(ctx, u) {
		return nil, fmt.Errorf("%w: %s", utils.ErrRobotsDisallowed, u.String())
	}

	return f.do(ctx, u, timeout, maxBytes)
}

// do executes the request without the robots.txt check
func (f *Fetcher) do(ctx context.Context, u *url.URL, timeout time.Duration, maxBytes int64) (*Response, error) {
	host := u.Hostname()
	reqLog := f.log.WithField("url", u.String())

	if err := f.hosts.Acquire(ctx, host); err != nil {
		return nil, fmt.Errorf("waiting for host slot '%s': %w", host, err)
	}
	defer f.hosts.Release(host)

	if err := f.limiter.Wait(ctx, host); err != nil {
		return nil, fmt.Errorf("waiting for rate limit on '%s': %w", host, err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %w", utils.ErrRequestCreation, u.String(), err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if f.referer != "" {
		req.Header.Set("Referer", f.referer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		reqLog.Debugf("Request failed: %v", err)
		return nil, fmt.Errorf("fetching '%s': %w", u.String(), err)
	}
	defer resp.Body.Close()

	out := &Response{
		URL:         resp.Request.URL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
		reqLog.WithField("status_code", resp.StatusCode).Debug("Non-200 response")
		return out, statusError(resp.StatusCode)
	}

	// Declared length already over the limit: skip the download entirely
	if maxBytes > 0 && resp.ContentLength > maxBytes {
		out.Truncated = true
		return out, nil
	}

	var reader io.Reader = resp.Body
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %w", utils.ErrResponseBodyRead, u.String(), err)
	}
	if maxBytes > 0 && int64(len(body)) > maxBytes {
		out.Truncated = true
		body = body[:maxBytes]
	}
	out.Body = body

	reqLog.WithField("bytes", len(body)).Debug("Fetched")
	return out, nil
}

// statusError maps a non-200 status to its sentinel
func statusError(code int) error {
	switch {
	case code >= 400 && code < 500:
		return fmt.Errorf("%w: status %d %s", utils.ErrClientHTTPError, code, http.StatusText(code))
	case code >= 500:
		return fmt.Errorf("%w: status %d %s", utils.ErrServerHTTPError, code, http.StatusText(code))
	default:
		return fmt.Errorf("%w: status %d %s", utils.ErrOtherHTTPError, code, http.StatusText(code))
	}
}

// parseHTTPURL accepts absolute http(s) URLs only
func parseHTTPURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL '%s': %w", utils.ErrParsing, rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid URL '%s': need absolute http(s) URL", utils.ErrParsing, rawURL)
	}
	return u, nil
}
