package recommend

import (
	"context"
	"log/slog"
	"slices"

	"github.com/sourcegraph/conc/iter"

	"github.com/lepinkainen/lumo/internal/tmdb"
)

const (
	enrichConcurrency = 2
	genrePage         = 1
)

// Catalog is the part of the metadata client the service needs.
type Catalog interface {
	FetchDetails(ctx context.Context, kind string, id int) (tmdb.NormalizedTitle, bool)
	FetchByGenre(ctx context.Context, kind string, genreID, page int) []tmdb.NormalizedTitle
}

// Seed identifies a title a user already knows about.
type Seed struct {
	Kind string
	ID   int
}

// Service builds recommendation lists on top of a Catalog.
type Service struct {
	catalog      Catalog
	scorer       Scorer
	widenByGenre bool
}

// Option configures a Service.
type Option func(*Service)

// WithGenreWidening adds the most popular titles of the reference's first
// genre to the candidate pool.
func WithGenreWidening() Option {
	return func(s *Service) {
		s.widenByGenre = true
	}
}

// NewService creates a recommendation service.
func NewService(catalog Catalog, scorer Scorer, opts ...Option) *Service {
	s := &Service{catalog: catalog, scorer: scorer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scorer returns the scoring parameters in use.
func (s *Service) Scorer() Scorer {
	return s.scorer
}

// Similar returns up to Limit titles similar to base, best first. kind
// defaults to base.Kind. It never fails; problems yield a shorter or empty list.
func (s *Service) Similar(ctx context.Context, base tmdb.NormalizedTitle, kind string) []tmdb.NormalizedTitle {
	return titlesOf(s.rank(ctx, base, kind))
}

// SimilarScored is Similar with the scores attached.
func (s *Service) SimilarScored(ctx context.Context, base tmdb.NormalizedTitle, kind string) []ScoredCandidate {
	return s.rank(ctx, base, kind)
}

func (s *Service) rank(ctx context.Context, base tmdb.NormalizedTitle, kind string) []ScoredCandidate {
	if kind == "" {
		kind = base.Kind
	}

	if base.Similar == nil {
		if !s.scorer.RawFallback {
			slog.Debug("No similar block, skipping recommendations", "id", base.ID)
			return []ScoredCandidate{}
		}
		reloaded, ok := s.catalog.FetchDetails(ctx, kind, base.ID)
		if !ok || reloaded.Similar == nil {
			slog.Warn("Similar titles unavailable", "kind", kind, "id", base.ID)
			return []ScoredCandidate{}
		}
		base = reloaded
	}

	pool := truncate(slices.Clone(base.Similar), s.scorer.poolSize())
	if s.widenByGenre && len(base.GenreIDs) > 0 {
		extra := s.catalog.FetchByGenre(ctx, kind, base.GenreIDs[0], genrePage)
		pool = append(pool, truncate(extra, s.scorer.poolSize())...)
	}

	if s.scorer.RawFallback && !hasSignal(base) {
		slog.Debug("Reference has nothing to score against, keeping provider order", "id", base.ID)
		return unscored(eligible(base, pool), s.scorer.limit())
	}

	if s.scorer.UsesCast() {
		base, pool = s.withCast(ctx, kind, base, eligible(base, pool))
	}

	return s.scorer.Rank(base, pool)
}

// withCast loads credits for the reference and every candidate that lacks them.
// A candidate whose details cannot be fetched is scored without cast.
func (s *Service) withCast(ctx context.Context, kind string, base tmdb.NormalizedTitle, pool []tmdb.NormalizedTitle) (tmdb.NormalizedTitle, []tmdb.NormalizedTitle) {
	if len(base.Cast) == 0 {
		if full, ok := s.catalog.FetchDetails(ctx, kind, base.ID); ok {
			base.Cast = full.Cast
		}
	}

	mapper := iter.Mapper[tmdb.NormalizedTitle, tmdb.NormalizedTitle]{MaxGoroutines: enrichConcurrency}
	pool = mapper.Map(pool, func(cand *tmdb.NormalizedTitle) tmdb.NormalizedTitle {
		if len(cand.Cast) > 0 {
			return *cand
		}
		candKind := cand.Kind
		if candKind == "" {
			candKind = kind
		}
		full, ok := s.catalog.FetchDetails(ctx, candKind, cand.ID)
		if !ok {
			return *cand
		}
		enriched := *cand
		enriched.Cast = full.Cast
		return enriched
	})

	return base, pool
}

// ForWatchlist recommends titles for a list of seeds. Each seed's similar
// titles are ranked, a candidate keeps its best score across seeds, and titles
// already on the list are left out.
func (s *Service) ForWatchlist(ctx context.Context, seeds []Seed) []ScoredCandidate {
	owned := make(map[Seed]struct{}, len(seeds))
	for _, seed := range seeds {
		owned[seed] = struct{}{}
	}

	best := make(map[Seed]int)
	merged := make([]ScoredCandidate, 0)
	for _, seed := range seeds {
		base, ok := s.catalog.FetchDetails(ctx, seed.Kind, seed.ID)
		if !ok {
			slog.Warn("Skipping watchlist entry", "kind", seed.Kind, "id", seed.ID)
			continue
		}
		for _, cand := range s.rank(ctx, base, seed.Kind) {
			key := Seed{Kind: cand.Title.Kind, ID: cand.Title.ID}
			if key.Kind == "" {
				key.Kind = seed.Kind
			}
			if _, skip := owned[key]; skip {
				continue
			}
			if idx, dup := best[key]; dup {
				if cand.Score > merged[idx].Score {
					merged[idx] = cand
				}
				continue
			}
			best[key] = len(merged)
			merged = append(merged, cand)
		}
	}

	slices.SortStableFunc(merged, byScoreDesc)

	return truncate(merged, s.scorer.limit())
}

func hasSignal(ref tmdb.NormalizedTitle) bool {
	return len(ref.GenreIDs) > 0 || ref.Year > 0 || len(ref.Cast) > 0
}

func unscored(pool []tmdb.NormalizedTitle, limit int) []ScoredCandidate {
	pool = truncate(pool, limit)
	out := make([]ScoredCandidate, 0, len(pool))
	for _, t := range pool {
		out = append(out, ScoredCandidate{Title: t})
	}
	return out
}

func titlesOf(scored []ScoredCandidate) []tmdb.NormalizedTitle {
	titles := make([]tmdb.NormalizedTitle, 0, len(scored))
	for _, c := range scored {
		titles = append(titles, c.Title)
	}
	return titles
}
