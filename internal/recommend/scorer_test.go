package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/lumo/internal/tmdb"
)

const (
	genreAction  = 28
	genreComedy  = 35
	genreSciFi   = 878
	genreDrama   = 18
	genreHorror  = 27
	genreRomance = 10749
)

func title(id int, year int, vote float64, genres ...int) tmdb.NormalizedTitle {
	if genres == nil {
		genres = []int{}
	}
	return tmdb.NormalizedTitle{ID: id, Kind: tmdb.KindMovie, MediaType: tmdb.KindMovie, Year: year, VoteAverage: vote, GenreIDs: genres}
}

func rankedIDs(scored []ScoredCandidate) []int {
	out := make([]int, 0, len(scored))
	for _, c := range scored {
		out = append(out, c.Title.ID)
	}
	return out
}

func TestEraScore(t *testing.T) {
	assert.Equal(t, 1.0, EraScore(2010, 2010))
	assert.InDelta(t, 0.9, EraScore(2010, 2011), 1e-9)
	assert.InDelta(t, 0.5, EraScore(2010, 2005), 1e-9)
	assert.Equal(t, 0.0, EraScore(2010, 2000))
	assert.Equal(t, 0.0, EraScore(2010, 1950))
	assert.Equal(t, 0.0, EraScore(0, 2010))
	assert.Equal(t, 0.0, EraScore(2010, 0))
}

func TestEraScoreMonotonic(t *testing.T) {
	prev := EraScore(2000, 2000)
	for gap := 1; gap <= 15; gap++ {
		cur := EraScore(2000, 2000+gap)
		assert.LessOrEqual(t, cur, prev, "gap %d", gap)
		assert.GreaterOrEqual(t, cur, 0.0)
		prev = cur
	}
}

func TestSameYearScoresAtLeastDecadeApart(t *testing.T) {
	scorer := Lightweight()
	ref := title(1, 2000, 0, genreDrama)

	same := scorer.Score(ref, title(2, 2000, 7, genreDrama))
	far := scorer.Score(ref, title(3, 2012, 7, genreDrama))

	assert.GreaterOrEqual(t, same, far)
}

func TestGenreOverlap(t *testing.T) {
	assert.Equal(t, 2, GenreOverlap([]int{genreAction, genreSciFi, genreDrama}, []int{genreSciFi, genreAction, genreComedy}))
	assert.Equal(t, 1, GenreOverlap([]int{genreAction}, []int{genreAction, genreAction}))
	assert.Equal(t, 0, GenreOverlap(nil, []int{genreAction}))
}

func TestCastOverlapUsesTopBilled(t *testing.T) {
	ref := []tmdb.CastMember{
		{Name: "Keanu Reeves", Order: 0},
		{Name: "Laurence Fishburne", Order: 1},
		{Name: "Carrie-Anne Moss", Order: 2},
	}
	cand := []tmdb.CastMember{
		{Name: "Extra", Order: 0},
		{Name: "keanu reeves", Order: 1},
		{Name: "Carrie-Anne Moss", Order: 5},
	}

	assert.Equal(t, 2, CastOverlap(ref, cand, 0))
	assert.Equal(t, 1, CastOverlap(ref, cand, 2))
	assert.Equal(t, 0, CastOverlap(nil, cand, 5))
}

func TestRankGenreOverlapBeatsHigherVote(t *testing.T) {
	ref := title(100, 2010, 8, genreAction, genreSciFi)
	a := title(1, 2011, 7.0, genreAction)
	b := title(2, 1995, 9.0, genreComedy)

	for name, scorer := range map[string]Scorer{"lightweight": Lightweight(), "cast aware": CastAware()} {
		t.Run(name, func(t *testing.T) {
			ranked := scorer.Rank(ref, []tmdb.NormalizedTitle{b, a})
			require.Equal(t, []int{1, 2}, rankedIDs(ranked))
			assert.Greater(t, ranked[0].Score, ranked[1].Score)
		})
	}
}

func TestRankExcludesSelfAndInvalid(t *testing.T) {
	ref := title(7, 2000, 0, genreDrama)
	candidates := []tmdb.NormalizedTitle{
		title(7, 2000, 9, genreDrama),
		title(0, 2000, 9, genreDrama),
		title(8, 2000, 5, genreDrama),
		title(8, 1990, 1),
	}

	ranked := Lightweight().Rank(ref, candidates)

	assert.Equal(t, []int{8}, rankedIDs(ranked))
	assert.Equal(t, 2000, ranked[0].Title.Year)
}

func TestRankStableTiesAndLimit(t *testing.T) {
	ref := title(1, 2000, 0, genreHorror)
	var candidates []tmdb.NormalizedTitle
	for id := 10; id < 20; id++ {
		candidates = append(candidates, title(id, 2000, 5, genreHorror))
	}

	ranked := Lightweight().Rank(ref, candidates)

	assert.Equal(t, []int{10, 11, 12, 13, 14, 15}, rankedIDs(ranked))
}

func TestRankIsDeterministic(t *testing.T) {
	ref := title(1, 2005, 0, genreRomance, genreComedy)
	candidates := []tmdb.NormalizedTitle{
		title(2, 2004, 6.1, genreComedy),
		title(3, 2015, 7.2, genreRomance, genreComedy),
		title(4, 2006, 5.5, genreRomance),
		title(5, 1980, 8.8),
	}

	first := CastAware().Rank(ref, candidates)
	for range 5 {
		assert.Equal(t, first, CastAware().Rank(ref, candidates))
	}
}

func TestScoreFormula(t *testing.T) {
	ref := title(1, 2010, 0, genreAction, genreSciFi)
	ref.Cast = []tmdb.CastMember{{Name: "A", Order: 0}, {Name: "B", Order: 1}}
	cand := title(2, 2012, 8.0, genreAction, genreSciFi)
	cand.Cast = []tmdb.CastMember{{Name: "B", Order: 0}}

	// 2 genres·3 + era 0.8·1 + vote 0.8
	assert.InDelta(t, 7.6, Lightweight().Score(ref, cand), 1e-9)
	// 2 genres·2 + 1 cast·3 + era 0.8·2 + vote 0.8
	assert.InDelta(t, 9.4, CastAware().Score(ref, cand), 1e-9)
}

func TestPresets(t *testing.T) {
	light := Lightweight()
	assert.False(t, light.UsesCast())
	assert.False(t, light.RawFallback)
	assert.Equal(t, 12, light.PoolSize)
	assert.Equal(t, 6, light.Limit)

	aware := CastAware()
	assert.True(t, aware.UsesCast())
	assert.True(t, aware.RawFallback)
	assert.Equal(t, Weights{Genre: 2, Cast: 3, Era: 2}, aware.Weights)
}
