// Package tmdb provides a client for TheMovieDB API.
package tmdb

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/lepinkainen/lumo/internal/cache"
	apperrors "github.com/lepinkainen/lumo/internal/errors"
	"github.com/lepinkainen/lumo/internal/metrics"
	"github.com/lepinkainen/lumo/internal/ratelimit"
)

const (
	defaultBaseURL        = "https://api.themoviedb.org/3"
	defaultImageBaseURL   = "https://image.tmdb.org/t/p"
	defaultPosterSize     = "w500"
	defaultBackdropSize   = "w1280"
	defaultLogoSize       = "w500"
	defaultLanguage       = "en"
	defaultMaxAttempts    = 3
	defaultRetryBackoff   = 500 * time.Millisecond
	defaultRequestTimeout = 12 * time.Second
	defaultMaxWidth       = 1000

	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
)

// Media kinds accepted by the provider endpoints.
const (
	KindMovie = "movie"
	KindTV    = "tv"
	KindAll   = "all"

	// MediaAnime is assigned during normalization, never sent upstream.
	MediaAnime = "anime"
)

var (
	// ErrInvalidMediaType is returned when an unsupported media type is provided.
	ErrInvalidMediaType = errors.New("invalid media type")
	// ErrInvalidWindow is returned for a trending window other than day or week.
	ErrInvalidWindow = errors.New("invalid trending window")
	// ErrNoPoster is returned when no poster is available for the media.
	ErrNoPoster = errors.New("poster not available")
	// ErrUnavailable is returned when the provider could not deliver a usable response.
	ErrUnavailable = errors.New("tmdb: unavailable")
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is a TMDB API client.
type Client struct {
	apiKey         string
	baseURL        string
	imageBaseURL   string
	posterSize     string
	backdropSize   string
	logoSize       string
	language       string
	httpClient     HTTPDoer
	rateLimiter    *ratelimit.Limiter
	store          cache.Store
	breaker        *gobreaker.CircuitBreaker[[]byte]
	inflight       singleflight.Group
	mu             sync.RWMutex
	genreCache     []Genre
	retryAttempts  int
	retryBackoff   time.Duration
	requestTimeout time.Duration
}

// NewClient creates a new TMDB API client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:         apiKey,
		baseURL:        defaultBaseURL,
		imageBaseURL:   defaultImageBaseURL,
		posterSize:     defaultPosterSize,
		backdropSize:   defaultBackdropSize,
		logoSize:       defaultLogoSize,
		language:       defaultLanguage,
		httpClient:     &http.Client{Timeout: defaultRequestTimeout},
		rateLimiter:    ratelimit.New("TMDB", ratelimit.DefaultInterval),
		breaker:        NewBreaker("TMDB", breakerFailureThreshold, breakerOpenTimeout),
		retryAttempts:  defaultMaxAttempts,
		retryBackoff:   defaultRetryBackoff,
		requestTimeout: defaultRequestTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.store == nil {
		client.store = cache.NewMemoryStore(0, cache.DefaultTTL)
	}

	return client
}

// NewBreaker builds the circuit breaker guarding provider fetches. It opens after
// threshold consecutive unavailable fetches and lets a trial request through after timeout.
func NewBreaker(name string, threshold uint32, timeout time.Duration) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    name,
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// a 4xx answer means the provider is up
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// a caller giving up says nothing about the provider
			if errors.Is(err, context.Canceled) {
				return true
			}
			statusErr, ok := apperrors.AsStatusError(err)
			return ok && !statusErr.ServerSide()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			metrics.SetBreakerOpen(to == gobreaker.StateOpen)
		},
	})
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithBaseURL sets a custom base URL for the TMDB API.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithImageBaseURL sets a custom base URL for TMDB images.
func WithImageBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.imageBaseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithImageSizes overrides the poster, backdrop and logo size segments. Empty values keep the default.
func WithImageSizes(poster, backdrop, logo string) Option {
	return func(client *Client) {
		if poster != "" {
			client.posterSize = poster
		}
		if backdrop != "" {
			client.backdropSize = backdrop
		}
		if logo != "" {
			client.logoSize = logo
		}
	}
}

// WithLanguage sets the preferred language used when ranking logos.
func WithLanguage(lang string) Option {
	return func(client *Client) {
		if lang != "" {
			client.language = strings.ToLower(lang)
		}
	}
}

// WithRetryAttempts sets the total number of attempts for failed requests.
func WithRetryAttempts(attempts int) Option {
	return func(client *Client) {
		if attempts > 0 {
			client.retryAttempts = attempts
		}
	}
}

// WithRetryBackoff sets the fixed pause between attempts.
func WithRetryBackoff(backoff time.Duration) Option {
	return func(client *Client) {
		if backoff >= 0 {
			client.retryBackoff = backoff
		}
	}
}

// WithRequestTimeout bounds each outbound attempt.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(client *Client) {
		if timeout > 0 {
			client.requestTimeout = timeout
		}
	}
}

// WithRateLimiter sets a custom rate limiter for the client.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(client *Client) {
		if limiter != nil {
			client.rateLimiter = limiter
		}
	}
}

// WithStore sets the response cache.
func WithStore(store cache.Store) Option {
	return func(client *Client) {
		if store != nil {
			client.store = store
		}
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(breaker *gobreaker.CircuitBreaker[[]byte]) Option {
	return func(client *Client) {
		if breaker != nil {
			client.breaker = breaker
		}
	}
}

func validKind(kind string) error {
	switch kind {
	case KindMovie, KindTV:
		return nil
	default:
		return ErrInvalidMediaType
	}
}
