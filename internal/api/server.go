// Package api exposes the catalog and recommendations as a read-only JSON API.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lepinkainen/lumo/internal/tmdb"
)

const (
	defaultRequestsPerMinute = 120
	shutdownTimeout          = 10 * time.Second
	readHeaderTimeout        = 5 * time.Second
)

// Catalog is the metadata surface served by the API.
type Catalog interface {
	FetchPopular(ctx context.Context, kind string, page int) []tmdb.NormalizedTitle
	FetchTrending(ctx context.Context, kind, window string, page, limit int) []tmdb.NormalizedTitle
	FetchTopRated(ctx context.Context, kind string, page, limit int) []tmdb.NormalizedTitle
	FetchDetails(ctx context.Context, kind string, id int) (tmdb.NormalizedTitle, bool)
	SearchAll(ctx context.Context, query string, page int) []tmdb.NormalizedTitle
	GetGenres(ctx context.Context) []tmdb.Genre
}

// Recommender produces similar titles for a reference title.
type Recommender interface {
	Similar(ctx context.Context, base tmdb.NormalizedTitle, kind string) []tmdb.NormalizedTitle
}

// Annotator attaches local data, such as ratings, to titles in place.
type Annotator interface {
	AnnotateAll(ctx context.Context, titles []tmdb.NormalizedTitle)
}

// Server holds the handlers' dependencies.
type Server struct {
	catalog           Catalog
	recommender       Recommender
	annotator         Annotator
	requestsPerMinute int
}

// Option configures a Server.
type Option func(*Server)

// WithAnnotator enables local rating annotation of every returned title.
func WithAnnotator(a Annotator) Option {
	return func(s *Server) {
		s.annotator = a
	}
}

// WithRateLimit sets the per-IP request budget per minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		if perMinute > 0 {
			s.requestsPerMinute = perMinute
		}
	}
}

// NewServer creates an API server.
func NewServer(catalog Catalog, recommender Recommender, opts ...Option) *Server {
	s := &Server{
		catalog:           catalog,
		recommender:       recommender,
		requestsPerMinute: defaultRequestsPerMinute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestMetrics)

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(httprate.LimitByIP(s.requestsPerMinute, time.Minute))

		r.Get("/popular/{kind}", s.popular)
		r.Get("/trending/{kind}/{window}", s.trending)
		r.Get("/top-rated/{kind}", s.topRated)
		r.Get("/titles/{kind}/{id}", s.details)
		r.Get("/titles/{kind}/{id}/similar", s.similar)
		r.Get("/search", s.search)
		r.Get("/genres", s.genres)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, errNotFound)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}
