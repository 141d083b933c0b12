package fetch

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

const (
	robotsTimeout  = 10 * time.Second
	robotsMaxBytes = 512 * 1024
)

// RobotsHandler fetches, caches and evaluates robots.txt per host
type RobotsHandler struct {
	fetcher   *Fetcher
	userAgent string
	cache     map[string]*robotstxt.RobotsData // host -> parsed data (nil = allow all)
	mu        sync.Mutex
	log       *logrus.Entry
}

// NewRobotsHandler creates a RobotsHandler that fetches through fetcher
func NewRobotsHandler(fetcher *Fetcher, userAgent string, log *logrus.Entry) *RobotsHandler {
	return &RobotsHandler{
		fetcher:   fetcher,
		userAgent: userAgent,
		cache:     make(map[string]*robotstxt.RobotsData),
		log:       log,
	}
}

// TestAgent reports whether the configured agent may fetch target.
// Robots files that cannot be fetched or parsed allow everything.
func (rh *RobotsHandler) TestAgent(ctx context.Context, target *url.URL) bool {
	data := rh.get(ctx, target)
	if data == nil {
		return true
	}
	return data.TestAgent(target.RequestURI(), rh.userAgent)
}

func (rh *RobotsHandler) get(ctx context.Context, target *url.URL) *robotstxt.RobotsData {
	host := target.Host
	rh.mu.Lock()
	data, found := rh.cache[host]
	rh.mu.Unlock()
	if found {
		return data
	}

	robotsURL := &url.URL{Scheme: target.Scheme, Host: host, Path: "/robots.txt"}
	robotsLog := rh.log.WithField("robots_url", robotsURL.String())

	resp, err := rh.fetcher.do(ctx, robotsURL, robotsTimeout, robotsMaxBytes)
	switch {
	case err != nil && resp != nil:
		// Non-200: robotstxt treats 4xx as allow-all and 5xx as disallow-all
		data, err = robotstxt.FromStatusAndBytes(resp.StatusCode, nil)
	case err != nil:
		robotsLog.Debugf("robots.txt unavailable: %v", err)
		data = nil
	default:
		data, err = robotstxt.FromBytes(resp.Body)
	}
	if err != nil {
		robotsLog.Warnf("Error parsing robots.txt: %v", err)
		data = nil
	}

	rh.mu.Lock()
	rh.cache[host] = data
	rh.mu.Unlock()
	return data
}
