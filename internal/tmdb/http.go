package tmdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/lumo/internal/cache"
	apperrors "github.com/lepinkainen/lumo/internal/errors"
	"github.com/lepinkainen/lumo/internal/metrics"
)

const maxRetryAfter = 5 * time.Second

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRetryable
	outcomeTerminal
)

func (o outcome) String() string {
	switch o {
	case outcomeSuccess:
		return "success"
	case outcomeRetryable:
		return "retryable"
	default:
		return "terminal"
	}
}

// attemptResult is the classified result of a single outbound request.
type attemptResult struct {
	outcome outcome
	body    []byte
	err     error
}

// Fetch returns the JSON document for endpoint (relative to the base URL) with params.
// With useCache a fresh cached copy is returned without touching the network or the
// rate limiter. Otherwise the request is paced, retried on transient failures and the
// compacted response stored in the cache. Any failure wraps ErrUnavailable.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values, useCache bool) ([]byte, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = append([]string(nil), v...)
	}
	query.Set(cache.CredentialParam, c.apiKey)
	key := cache.BuildKey(endpoint, query)

	if useCache {
		if payload, ok := c.store.Get(key); ok {
			metrics.RecordCacheLookup(true)
			slog.Debug("Cache hit", "endpoint", endpoint, "key", key)
			return payload, nil
		}
		metrics.RecordCacheLookup(false)
		slog.Debug("Cache miss, fetching data", "endpoint", endpoint, "key", key)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, endpoint, err)
	}

	// The shared fill outlives any single caller and stays bounded by the
	// per-attempt timeout. Callers stop waiting when their own ctx ends.
	fillCtx := context.WithoutCancel(ctx)
	results := c.inflight.DoChan(key, func() (any, error) {
		payload, err := c.breaker.Execute(func() ([]byte, error) {
			return c.fetchWithRetry(fillCtx, endpoint, query)
		})
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(key, payload); err != nil {
			// caching failure shouldn't fail the request
			slog.Warn("Failed to cache data", "endpoint", endpoint, "key", key, "error", err)
		}
		return payload, nil
	})

	select {
	case <-ctx.Done():
		slog.Debug("Caller stopped waiting for TMDB response", "endpoint", endpoint, "error", ctx.Err())
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, endpoint, ctx.Err())
	case res := <-results:
		if res.Err != nil {
			metrics.RecordUnavailable()
			return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, endpoint, res.Err)
		}
		return res.Val.([]byte), nil
	}
}

func (c *Client) fetchWithRetry(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	var last attemptResult
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		start := time.Now()
		last = c.doRequest(ctx, endpoint, query)
		metrics.RecordUpstreamAttempt(last.outcome.String(), time.Since(start))

		switch last.outcome {
		case outcomeSuccess:
			return last.body, nil
		case outcomeTerminal:
			slog.Warn("TMDB request failed", "endpoint", endpoint, "error", last.err)
			return nil, last.err
		}

		if attempt == c.retryAttempts || ctx.Err() != nil {
			break
		}
		delay := backoffDelay(c.retryBackoff, last.err)
		slog.Debug("Retrying TMDB request", "endpoint", endpoint, "attempt", attempt, "delay", delay, "error", last.err)
		if err := sleepContext(ctx, delay); err != nil {
			return nil, err
		}
	}

	slog.Warn("TMDB request failed after retries", "endpoint", endpoint, "attempts", c.retryAttempts, "error", last.err)
	return nil, last.err
}

func (c *Client) doRequest(ctx context.Context, endpoint string, query url.Values) attemptResult {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return attemptResult{outcome: outcomeTerminal, err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isRetryable(err) {
			return attemptResult{outcome: outcomeRetryable, err: err}
		}
		return attemptResult{outcome: outcomeTerminal, err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		if retryAfter := parseRetryAfter(resp.Header.Get("Retry-After")); retryAfter > 0 {
			return attemptResult{outcome: outcomeRetryable, err: apperrors.NewRateLimitErrorWithRetry("tmdb: rate limited", retryAfter)}
		}
		return attemptResult{outcome: outcomeRetryable, err: apperrors.NewRateLimitError("tmdb: rate limited")}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := apperrors.NewStatusError("tmdb", resp.StatusCode, strings.TrimSpace(string(body)))
		if statusErr.ServerSide() {
			return attemptResult{outcome: outcomeRetryable, err: statusErr}
		}
		return attemptResult{outcome: outcomeTerminal, err: statusErr}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return attemptResult{outcome: outcomeRetryable, err: fmt.Errorf("tmdb: reading response: %w", err)}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err != nil {
		return attemptResult{outcome: outcomeTerminal, err: fmt.Errorf("tmdb: malformed response: %w", err)}
	}

	return attemptResult{outcome: outcomeSuccess, body: compact.Bytes()}
}

// getJSON fetches endpoint through the cache and decodes it into target.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, target any) error {
	payload, err := c.Fetch(ctx, endpoint, params, true)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("%w: %s: malformed response: %w", ErrUnavailable, endpoint, err)
	}
	return nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if apperrors.IsRateLimitError(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		// Network errors (connection resets etc.)
		if strings.Contains(urlErr.Error(), "connection") {
			return true
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// backoffDelay is the fixed pause between attempts, stretched to honour a
// provider Retry-After hint up to maxRetryAfter.
func backoffDelay(base time.Duration, err error) time.Duration {
	var rlErr *apperrors.RateLimitError
	if errors.As(err, &rlErr) && rlErr.RetryAfter > base {
		return min(rlErr.RetryAfter, maxRetryAfter)
	}
	return base
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
