package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_ZeroDelayNoop(t *testing.T) {
	rl := NewRateLimiter(0, testLogger())
	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, rl.Wait(context.Background(), "example.com"))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiter_SpacesSameHost(t *testing.T) {
	rl := NewRateLimiter(50*time.Millisecond, testLogger())
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, rl.Wait(ctx, "example.com")) // first request passes immediately
	require.NoError(t, rl.Wait(ctx, "example.com"))
	require.NoError(t, rl.Wait(ctx, "example.com"))
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestRateLimiter_HostsIndependent(t *testing.T) {
	rl := NewRateLimiter(time.Second, testLogger())
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, rl.Wait(ctx, "a.example.com"))
	require.NoError(t, rl.Wait(ctx, "b.example.com"))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRateLimiter_RespectsContextCancellation(t *testing.T) {
	rl := NewRateLimiter(5*time.Second, testLogger())
	require.NoError(t, rl.Wait(context.Background(), "example.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := rl.Wait(ctx, "example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
