package fetch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostSemaphorePool_DisabledIsNoop(t *testing.T) {
	pool := NewHostSemaphorePool(0, testLogger())
	for i := 0; i < 100; i++ {
		require.NoError(t, pool.Acquire(context.Background(), "example.com"))
	}
	pool.Release("example.com")
	assert.Equal(t, 0, pool.Len())
}

func TestHostSemaphorePool_LimitsPerHost(t *testing.T) {
	pool := NewHostSemaphorePool(2, testLogger())
	var active, peak atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, pool.Acquire(context.Background(), "example.com"))
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			pool.Release("example.com")
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 1, pool.Len())
}

func TestHostSemaphorePool_AcquireCanceled(t *testing.T) {
	pool := NewHostSemaphorePool(1, testLogger())
	require.NoError(t, pool.Acquire(context.Background(), "example.com"))
	defer pool.Release("example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := pool.Acquire(ctx, "example.com")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// A different host is unaffected
	require.NoError(t, pool.Acquire(context.Background(), "other.com"))
	pool.Release("other.com")
	assert.Equal(t, 2, pool.Len())
}
