package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RateLimiter spaces requests to the same host by at least delay.
// A zero delay disables limiting.
type RateLimiter struct {
	delay    time.Duration
	limiters map[string]*rate.Limiter // hostname -> limiter
	mu       sync.Mutex
	log      *logrus.Entry
}

// NewRateLimiter creates a RateLimiter
func NewRateLimiter(delay time.Duration, log *logrus.Entry) *RateLimiter {
	return &RateLimiter{
		delay:    delay,
		limiters: make(map[string]*rate.Limiter),
		log:      log,
	}
}

// Wait blocks until a request to host is allowed or ctx is done
func (rl *RateLimiter) Wait(ctx context.Context, host string) error {
	if rl.delay <= 0 {
		return nil
	}

	rl.mu.Lock()
	lim, ok := rl.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(rl.delay), 1)
		rl.limiters[host] = lim
	}
	rl.mu.Unlock()

	if r := lim.Reserve(); r.OK() {
		if d := r.Delay(); d > 0 {
			rl.log.WithFields(logrus.Fields{"host": host, "sleep": d}).Debug("Rate limit applying sleep")
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
				r.Cancel()
				return ctx.Err()
			}
		}
	}
	return nil
}
