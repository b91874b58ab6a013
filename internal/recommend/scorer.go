// Package recommend ranks "similar title" candidates with a deterministic
// multi-factor heuristic.
package recommend

import (
	"cmp"
	"slices"
	"strings"

	"github.com/lepinkainen/lumo/internal/tmdb"
)

const (
	defaultPoolSize = 12
	defaultLimit    = 6
	defaultCastTopN = 5
	eraWindowYears  = 10
)

// Weights are the per-factor multipliers of the score.
type Weights struct {
	Genre float64
	Cast  float64
	Era   float64
}

// Scorer holds the ranking parameters. A zero Cast weight disables cast
// overlap, and with it the per-candidate detail lookups.
type Scorer struct {
	Weights  Weights
	PoolSize int
	Limit    int
	CastTopN int
	// RawFallback returns the provider's own ordering when the reference
	// carries nothing to score against, instead of an empty list.
	RawFallback bool
}

// ScoredCandidate is a candidate title with its score.
type ScoredCandidate struct {
	Title tmdb.NormalizedTitle `json:"title"`
	Score float64              `json:"score"`
}

// Lightweight scores on genres and era only and needs no extra fetches.
func Lightweight() Scorer {
	return Scorer{
		Weights:  Weights{Genre: 3, Era: 1},
		PoolSize: defaultPoolSize,
		Limit:    defaultLimit,
		CastTopN: defaultCastTopN,
	}
}

// CastAware adds shared top-billed cast to the score.
func CastAware() Scorer {
	return Scorer{
		Weights:     Weights{Genre: 2, Cast: 3, Era: 2},
		PoolSize:    defaultPoolSize,
		Limit:       defaultLimit,
		CastTopN:    defaultCastTopN,
		RawFallback: true,
	}
}

// UsesCast reports whether the scorer needs cast data.
func (s Scorer) UsesCast() bool {
	return s.Weights.Cast > 0
}

// EraScore decays linearly from 1 for the same year to 0 at ten or more
// years apart. It is 0 when either year is unknown.
func EraScore(refYear, candYear int) float64 {
	if refYear <= 0 || candYear <= 0 {
		return 0
	}
	gap := refYear - candYear
	if gap < 0 {
		gap = -gap
	}
	return float64(max(0, eraWindowYears-gap)) / eraWindowYears
}

// GenreOverlap counts the genre ids two titles share.
func GenreOverlap(ref, cand []int) int {
	overlap := 0
	seen := make(map[int]struct{}, len(cand))
	for _, id := range cand {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if slices.Contains(ref, id) {
			overlap++
		}
	}
	return overlap
}

// CastOverlap counts the names shared by the topN billed cast members of each title.
func CastOverlap(ref, cand []tmdb.CastMember, topN int) int {
	refNames := topBilled(ref, topN)
	overlap := 0
	for name := range topBilled(cand, topN) {
		if _, ok := refNames[name]; ok {
			overlap++
		}
	}
	return overlap
}

func topBilled(cast []tmdb.CastMember, topN int) map[string]struct{} {
	ordered := slices.Clone(cast)
	slices.SortStableFunc(ordered, func(a, b tmdb.CastMember) int { return a.Order - b.Order })
	if topN > 0 && len(ordered) > topN {
		ordered = ordered[:topN]
	}
	names := make(map[string]struct{}, len(ordered))
	for _, member := range ordered {
		if name := strings.ToLower(strings.TrimSpace(member.Name)); name != "" {
			names[name] = struct{}{}
		}
	}
	return names
}

// Score computes genreOverlap·w_g + castOverlap·w_c + eraScore·w_e + vote/10.
func (s Scorer) Score(ref, cand tmdb.NormalizedTitle) float64 {
	score := float64(GenreOverlap(ref.GenreIDs, cand.GenreIDs)) * s.Weights.Genre
	if s.UsesCast() {
		score += float64(CastOverlap(ref.Cast, cand.Cast, s.CastTopN)) * s.Weights.Cast
	}
	score += EraScore(ref.Year, cand.Year) * s.Weights.Era
	score += cand.VoteAverage / 10
	return score
}

// Rank scores candidates against ref and returns the best Limit of them,
// highest first. Candidates without an id, the reference itself and repeated
// ids are dropped. Equal scores keep their input order.
func (s Scorer) Rank(ref tmdb.NormalizedTitle, candidates []tmdb.NormalizedTitle) []ScoredCandidate {
	pool := eligible(ref, candidates)

	scored := make([]ScoredCandidate, 0, len(pool))
	for _, cand := range pool {
		scored = append(scored, ScoredCandidate{Title: cand, Score: s.Score(ref, cand)})
	}

	slices.SortStableFunc(scored, byScoreDesc)

	return truncate(scored, s.limit())
}

func byScoreDesc(a, b ScoredCandidate) int {
	return cmp.Compare(b.Score, a.Score)
}

func (s Scorer) limit() int {
	if s.Limit <= 0 {
		return defaultLimit
	}
	return s.Limit
}

func (s Scorer) poolSize() int {
	if s.PoolSize <= 0 {
		return defaultPoolSize
	}
	return s.PoolSize
}

func eligible(ref tmdb.NormalizedTitle, candidates []tmdb.NormalizedTitle) []tmdb.NormalizedTitle {
	seen := make(map[int]struct{}, len(candidates))
	pool := make([]tmdb.NormalizedTitle, 0, len(candidates))
	for _, cand := range candidates {
		if cand.ID == 0 || cand.ID == ref.ID {
			continue
		}
		if _, dup := seen[cand.ID]; dup {
			continue
		}
		seen[cand.ID] = struct{}{}
		pool = append(pool, cand)
	}
	return pool
}

func truncate[T any](items []T, n int) []T {
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}
