package fetch

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// HostSemaphorePool caps concurrent in-flight requests per host.
// A limit of zero or less disables the cap.
type HostSemaphorePool struct {
	sems  map[string]*semaphore.Weighted
	mu    sync.Mutex
	limit int64
	log   *logrus.Entry
}

// NewHostSemaphorePool creates a pool with the given per-host concurrency limit
func NewHostSemaphorePool(maxPerHost int, log *logrus.Entry) *HostSemaphorePool {
	return &HostSemaphorePool{
		sems:  make(map[string]*semaphore.Weighted),
		limit: int64(maxPerHost),
		log:   log,
	}
}

// Acquire takes one permit for host, blocking until one is free or ctx is done
func (p *HostSemaphorePool) Acquire(ctx context.Context, host string) error {
	if p.limit <= 0 {
		return nil
	}
	return p.get(host).Acquire(ctx, 1)
}

// Release returns a permit taken by Acquire
func (p *HostSemaphorePool) Release(host string) {
	if p.limit <= 0 {
		return
	}
	p.get(host).Release(1)
}

// Len returns the number of hosts seen so far
func (p *HostSemaphorePool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sems)
}

func (p *HostSemaphorePool) get(host string) *semaphore.Weighted {
	p.mu.Lock()
	defer p.mu.Unlock()
	sem, ok := p.sems[host]
	if !ok {
		sem = semaphore.NewWeighted(p.limit)
		p.sems[host] = sem
		p.log.WithFields(logrus.Fields{"host": host, "limit": p.limit}).Debug("Created host semaphore")
	}
	return sem
}
