package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitSpacesConsecutiveCalls(t *testing.T) {
	const n = 5
	interval := 40 * time.Millisecond
	limiter := New("test", interval)

	start := time.Now()
	for i := 0; i < n; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, time.Duration(n-1)*interval)
}

func TestWaitFirstCallDoesNotBlock(t *testing.T) {
	limiter := New("test", time.Second)

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background()))

	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.False(t, limiter.Last().IsZero())
}

func TestWaitSerializesConcurrentCallers(t *testing.T) {
	interval := 30 * time.Millisecond
	limiter := New("test", interval)

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, limiter.Wait(context.Background()))
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, time.Since(start), 3*interval)
}

func TestWaitHonoursContextCancellation(t *testing.T) {
	limiter := New("test", time.Hour)
	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait for test")
}

func TestNewDefaultsInterval(t *testing.T) {
	limiter := New("TMDB", 0)

	assert.Equal(t, DefaultInterval, limiter.Interval())
	assert.Equal(t, "TMDB", limiter.Name())
}
