package tmdb

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/lumo/internal/cache"
	"github.com/lepinkainen/lumo/internal/ratelimit"
)

func TestClientOptionsApply(t *testing.T) {
	customHTTP := &http.Client{}
	limiter := ratelimit.New("TMDB", 2*time.Second)
	store := cache.NewMemoryStore(10, time.Minute)
	breaker := NewBreaker("custom", 1, time.Second)

	client := NewClient(
		"key",
		WithBaseURL("https://example.test/"),
		WithImageBaseURL("https://images.test/"),
		WithImageSizes("w342", "", "w300"),
		WithLanguage("FI"),
		WithHTTPClient(customHTTP),
		WithRetryAttempts(5),
		WithRetryBackoff(time.Second),
		WithRequestTimeout(3*time.Second),
		WithRateLimiter(limiter),
		WithStore(store),
		WithBreaker(breaker),
	)

	require.Equal(t, "https://example.test", client.baseURL)
	require.Equal(t, "https://images.test", client.imageBaseURL)
	require.Equal(t, "w342", client.posterSize)
	require.Equal(t, defaultBackdropSize, client.backdropSize)
	require.Equal(t, "w300", client.logoSize)
	require.Equal(t, "fi", client.language)
	require.Equal(t, customHTTP, client.httpClient)
	require.Equal(t, 5, client.retryAttempts)
	require.Equal(t, time.Second, client.retryBackoff)
	require.Equal(t, 3*time.Second, client.requestTimeout)
	require.Same(t, limiter, client.rateLimiter)
	require.Equal(t, store, client.store)
	require.Same(t, breaker, client.breaker)
}

func TestClientDefaults(t *testing.T) {
	client := NewClient("key", WithRateLimiter(nil), WithStore(nil), WithRetryAttempts(0), WithRequestTimeout(0))

	require.Equal(t, defaultBaseURL, client.baseURL)
	require.Equal(t, defaultImageBaseURL, client.imageBaseURL)
	require.Equal(t, defaultLanguage, client.language)
	require.Equal(t, defaultMaxAttempts, client.retryAttempts)
	require.Equal(t, defaultRetryBackoff, client.retryBackoff)
	require.Equal(t, defaultRequestTimeout, client.requestTimeout)
	require.NotNil(t, client.rateLimiter)
	require.Equal(t, ratelimit.DefaultInterval, client.rateLimiter.Interval())
	require.NotNil(t, client.store)
	require.NotNil(t, client.breaker)
}
